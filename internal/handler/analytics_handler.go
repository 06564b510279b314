package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-analytics-api/internal/middleware"
	"github.com/noah-isme/course-analytics-api/internal/service"
	appErrors "github.com/noah-isme/course-analytics-api/pkg/errors"
	"github.com/noah-isme/course-analytics-api/pkg/response"
)

// AnalyticsHandler exposes the comprehensive analytics endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Comprehensive godoc
// @Summary Comprehensive course analytics
// @Description Aggregated per-user analytics for a course. userid=0 returns every enrolled user.
// @Tags analytics
// @Produce json
// @Param id path int true "Course ID"
// @Param userid query int false "User ID (0 = all enrolled)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/analytics [get]
func (h *AnalyticsHandler) Comprehensive(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	courseID, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	userID, err := parseOptionalUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	_, users, cacheHit, err := h.analytics.ComprehensiveAnalytics(c.Request.Context(), courseID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, users, meta)
}

// UserReport godoc
// @Summary Single-user analytics report
// @Tags analytics
// @Produce json
// @Param id path int true "Course ID"
// @Param userid path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/users/{userid}/report [get]
func (h *AnalyticsHandler) UserReport(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	courseID, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	userID, err := parseID(c, "userid")
	if err != nil {
		response.Error(c, err)
		return
	}

	_, users, cacheHit, err := h.analytics.ComprehensiveAnalytics(c.Request.Context(), courseID, &userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(users) == 0 {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, users[0])
}
