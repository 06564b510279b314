package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-analytics-api/internal/models"
	"github.com/noah-isme/course-analytics-api/internal/service"
	"github.com/noah-isme/course-analytics-api/pkg/export"
)

type courseRepoMock struct {
	course *models.Course
	users  []models.EnrolledUser
}

func (m *courseRepoMock) FindByID(_ context.Context, _ int64) (*models.Course, error) {
	return m.course, nil
}

func (m *courseRepoMock) EnrolledUsers(_ context.Context, _ int64) ([]models.EnrolledUser, error) {
	return m.users, nil
}

type capabilityRepoMock struct{}

func (capabilityRepoMock) ExistingTables(_ context.Context, _ []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

type assignmentCollectorMock struct{}

func (assignmentCollectorMock) Collect(_ context.Context, _ int64, _ []int64) (map[int64]map[int64]*models.AssignmentMetrics, error) {
	return nil, nil
}

type contentCollectorMock struct{}

func (contentCollectorMock) CollectH5P(_ context.Context, _ int64, _ []int64) (map[int64]map[int64]*models.H5PMetrics, error) {
	return nil, nil
}

func (contentCollectorMock) CollectVideo(_ context.Context, _ int64, _ []int64) (map[int64]map[int64]*models.VideoMetrics, error) {
	return nil, nil
}

func (contentCollectorMock) CollectSCORM(_ context.Context, _ int64, _ []int64) (map[int64]map[int64]*models.SCORMMetrics, error) {
	return nil, nil
}

type liveSessionCollectorMock struct{}

func (liveSessionCollectorMock) CollectBigBlueButton(_ context.Context, _ int64, _ []int64) (map[int64]map[int64]*models.BigBlueButtonMetrics, error) {
	return nil, nil
}

func (liveSessionCollectorMock) CollectZoom(_ context.Context, _ int64, _ []int64) (map[int64]map[int64]*models.ZoomMetrics, error) {
	return nil, nil
}

type forumCollectorMock struct{}

func (forumCollectorMock) Collect(_ context.Context, _ int64, _ []int64) (map[int64]map[int64]*models.ForumMetrics, error) {
	return nil, nil
}

type attendanceCollectorMock struct{}

func (attendanceCollectorMock) Collect(_ context.Context, _ int64, _ []int64) (map[int64]map[int64]*models.AttendanceMetrics, error) {
	return nil, nil
}

type competencyCollectorMock struct{}

func (competencyCollectorMock) CollectRatings(_ context.Context, _ int64, _ []int64) (map[int64]map[int64]*models.CompetencyMetrics, error) {
	return nil, nil
}

func (competencyCollectorMock) CollectEvidence(_ context.Context, _ int64, _ []int64) ([]models.CompetencyEvidence, error) {
	return nil, nil
}

type badgeCollectorMock struct{}

func (badgeCollectorMock) CollectBadges(_ context.Context, _ int64, _ []int64) (map[int64]map[int64]*models.BadgeMetrics, error) {
	return nil, nil
}

func (badgeCollectorMock) CollectCertificates(_ context.Context, _ int64, _ []int64) (map[int64]map[int64]*models.CertificateMetrics, error) {
	return nil, nil
}

type behaviorCollectorMock struct{}

func (behaviorCollectorMock) CollectDeadlineAdherence(_ context.Context, _ int64, _ []int64) (map[int64]float64, error) {
	return nil, nil
}

func (behaviorCollectorMock) CollectLearningPace(_ context.Context, _ int64, _ []int64) (map[int64]*models.LearningPace, error) {
	return nil, nil
}

func (behaviorCollectorMock) CollectAcademicIntegrity(_ context.Context, _ int64, _ []int64) (map[int64]*models.AcademicIntegrity, error) {
	return nil, nil
}

type taCollectorMock struct{}

func (taCollectorMock) Collect(_ context.Context, _ int64, _ []int64) (map[int64]map[int64]*models.TAEvaluationMetrics, error) {
	return nil, nil
}

func newReportTestServices() (*service.AnalyticsService, *service.ExportService) {
	metrics := service.NewMetricsService()
	logger := zap.NewNop()
	cache := service.NewCacheService(nil, metrics, time.Minute, logger, false)
	courses := &courseRepoMock{
		course: &models.Course{ID: 7, ShortName: "GO101", FullName: "Intro to Go"},
		users:  []models.EnrolledUser{{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}},
	}
	analytics := service.NewAnalyticsService(
		courses,
		capabilityRepoMock{},
		assignmentCollectorMock{},
		contentCollectorMock{},
		liveSessionCollectorMock{},
		forumCollectorMock{},
		attendanceCollectorMock{},
		competencyCollectorMock{},
		badgeCollectorMock{},
		behaviorCollectorMock{},
		taCollectorMock{},
		cache,
		metrics,
		logger,
		time.Minute,
	)
	exports := service.NewExportService(export.NewCSVExporter(), export.NewPDFExporter(), metrics, logger)
	return analytics, exports
}

func TestReportHandlerRejectsUnsupportedFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	analytics, exports := newReportTestServices()
	handler := NewReportHandler(analytics, exports, true)

	c, w := newGinContext(http.MethodGet, "/report?id=7&format=xml", nil)

	handler.Report(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	require.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestReportHandlerRejectsPDFWhenDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	analytics, exports := newReportTestServices()
	handler := NewReportHandler(analytics, exports, false)

	c, w := newGinContext(http.MethodGet, "/report?id=7&format=pdf", nil)

	handler.Report(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerRequiresCourseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	analytics, exports := newReportTestServices()
	handler := NewReportHandler(analytics, exports, true)

	c, w := newGinContext(http.MethodGet, "/report?format=json", nil)

	handler.Report(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerJSONFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	analytics, exports := newReportTestServices()
	handler := NewReportHandler(analytics, exports, true)

	c, w := newGinContext(http.MethodGet, "/report?id=7&format=json", nil)

	handler.Report(c)
	require.Equal(t, http.StatusOK, w.Code)

	// Raw record mapping keyed by user id, no response envelope.
	var payload map[string]*models.AnalyticsRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Len(t, payload, 1)
	require.Contains(t, payload, "1")
	require.NotNil(t, payload["1"])
	require.NotContains(t, string(w.Body.Bytes()), `"data"`)
}

func TestReportHandlerCSVFormatSetsDisposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	analytics, exports := newReportTestServices()
	handler := NewReportHandler(analytics, exports, true)

	c, w := newGinContext(http.MethodGet, "/report?id=7&format=csv", nil)

	handler.Report(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "analytics_GO101_")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[1], "1,Ada,Lovelace,ada@example.com"))
}

func TestReportHandlerHTMLDashboard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	analytics, exports := newReportTestServices()
	handler := NewReportHandler(analytics, exports, true)

	c, w := newGinContext(http.MethodGet, "/report?id=7", nil)

	handler.Report(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")
	require.Contains(t, w.Body.String(), "Intro to Go")
	require.Contains(t, w.Body.String(), "Ada")
}
