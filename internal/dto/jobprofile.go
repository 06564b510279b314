package dto

import "github.com/noah-isme/course-analytics-api/internal/models"

// JobProfileRowInput is one editable row of the job profile form.
type JobProfileRowInput struct {
	Skill      string `json:"skill"`
	Weight     string `json:"weight"`
	System     string `json:"system"`
	Assignment string `json:"assignment"`
	Instructor string `json:"instructor"`
}

// JobProfileSaveRequest replaces the stored rows for a course.
type JobProfileSaveRequest struct {
	Rows []JobProfileRowInput `json:"rows" validate:"required"`
}

// JobProfileResponse returns the stored rows plus footer totals.
type JobProfileResponse struct {
	Rows           []models.JobProfileRow `json:"rows"`
	TotalWeight    string                 `json:"total_weight"`
	TotalUserSkill string                 `json:"total_userskill"`
}
