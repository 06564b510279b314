package dto

import "github.com/noah-isme/course-analytics-api/internal/models"

// UserAnalytics pairs user identity with the aggregated analytics record.
type UserAnalytics struct {
	UserID    int64                   `json:"userid"`
	FirstName string                  `json:"firstname"`
	LastName  string                  `json:"lastname"`
	Email     string                  `json:"email"`
	Analytics *models.AnalyticsRecord `json:"analytics"`
}
