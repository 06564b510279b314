package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/course-analytics-api/internal/dto"
	"github.com/noah-isme/course-analytics-api/internal/service"
	appErrors "github.com/noah-isme/course-analytics-api/pkg/errors"
	"github.com/noah-isme/course-analytics-api/pkg/response"
)

// JobProfileHandler exposes the editable weighted-skill table per course.
type JobProfileHandler struct {
	jobProfiles *service.JobProfileService
	validator   *validator.Validate
}

// NewJobProfileHandler constructs the job profile handler.
func NewJobProfileHandler(jobProfiles *service.JobProfileService, validate *validator.Validate) *JobProfileHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &JobProfileHandler{jobProfiles: jobProfiles, validator: validate}
}

// Get godoc
// @Summary Course job profile
// @Tags jobprofile
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/jobprofile [get]
func (h *JobProfileHandler) Get(c *gin.Context) {
	if h.jobProfiles == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	courseID, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.jobProfiles.Get(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Save godoc
// @Summary Replace course job profile rows
// @Tags jobprofile
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body dto.JobProfileSaveRequest true "Job profile rows"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/jobprofile [put]
func (h *JobProfileHandler) Save(c *gin.Context) {
	if h.jobProfiles == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	courseID, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.JobProfileSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job profile payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job profile payload"))
		return
	}

	result, err := h.jobProfiles.Save(c.Request.Context(), courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
