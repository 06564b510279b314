package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-analytics-api/internal/dto"
	"github.com/noah-isme/course-analytics-api/internal/models"
	"github.com/noah-isme/course-analytics-api/pkg/export"
)

func newTestExportService() *ExportService {
	return NewExportService(export.NewCSVExporter(), export.NewPDFExporter(), NewMetricsService(), zap.NewNop())
}

func TestExportHeadersFixedOrder(t *testing.T) {
	svc := newTestExportService()
	headers := svc.Headers()

	require.Len(t, headers, 36)
	assert.Equal(t, "UserID", headers[0])
	assert.Equal(t, "AssignAvgGrade%", headers[4])
	assert.Equal(t, "Attendance%", headers[20])
	assert.Equal(t, "TANotesCount", headers[35])
}

func TestExportFlattensEmptyRecordToZeros(t *testing.T) {
	svc := newTestExportService()
	users := []dto.UserAnalytics{{
		UserID:    5,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Analytics: models.NewAnalyticsRecord(5),
	}}

	dataset := svc.Dataset(users)
	require.Len(t, dataset.Rows, 1)
	row := dataset.Rows[0]

	assert.Equal(t, "5", row["UserID"])
	assert.Equal(t, "Ada", row["FirstName"])
	for _, column := range dataset.Headers[4:] {
		assert.Equal(t, "0", row[column], "column %s", column)
	}
}

func TestExportFlatteningPolicies(t *testing.T) {
	record := models.NewAnalyticsRecord(1)
	record.Assignments = map[int64]*models.AssignmentMetrics{
		7: {AvgGradePct: 70, OntimeSubmissionRate: 50, ResubmissionCount: 2,
			FeedbackRichness: &models.FeedbackRichness{AvgLength: 150, RichCount: 1}},
		8: {AvgGradePct: 90, OntimeSubmissionRate: 100},
	}
	record.InteractiveContent.Video = map[int64]*models.VideoMetrics{
		1: {CompletionRate: 40},
		2: {CompletionRate: 60},
	}
	record.Forums = map[int64]*models.ForumMetrics{
		11: {PostsCreated: 3, RepliesMade: 2, InstructorReplies: 1, AvgPeerRating: 4},
		12: {PostsCreated: 1, RepliesMade: 4, AvgPeerRating: 2},
	}
	record.Competencies = map[int64]*models.CompetencyMetrics{
		21: {Rating: 3, ProficiencyAchieved: true, EvidenceCount: 2, DateAchieved: 100},
		22: {Rating: 5, DateAchieved: 200},
	}
	record.Badges = map[int64]*models.BadgeMetrics{31: {Name: "Finisher"}}
	record.Behavioral.DeadlineAdherence = 83.33

	svc := newTestExportService()
	dataset := svc.Dataset([]dto.UserAnalytics{{UserID: 1, Analytics: record}})
	row := dataset.Rows[0]

	// Rates and averages collapse by mean.
	assert.Equal(t, "80", row["AssignAvgGrade%"])
	assert.Equal(t, "75", row["AssignOntime%"])
	assert.Equal(t, "50", row["VideoCompletion%"])
	assert.Equal(t, "3", row["PeerRating"])
	assert.Equal(t, "4", row["CompetencyRating"])

	// Counts collapse by sum.
	assert.Equal(t, "2", row["ResubmissionCount"])
	assert.Equal(t, "1", row["FeedbackRichness"])
	assert.Equal(t, "4", row["ForumPosts"])
	assert.Equal(t, "6", row["ForumReplies"])
	assert.Equal(t, "1", row["InstructorEngagement"])
	assert.Equal(t, "2", row["EvidenceCount"])

	assert.Equal(t, "1", row["ProficiencyAchieved"])
	assert.Equal(t, "200", row["DateAchieved"])
	assert.Equal(t, "1", row["BadgesEarned"])
	assert.Equal(t, "0", row["CertificateAchieved"])
	assert.Equal(t, "83.33", row["DeadlineAdherence%"])
}

func TestExportFilename(t *testing.T) {
	svc := newTestExportService()
	now := time.Unix(1700000000, 0)
	assert.Equal(t, "analytics_GO101_1700000000.csv", svc.Filename("GO101", now))
}

func TestRenderCSVHeaderRow(t *testing.T) {
	svc := newTestExportService()
	data, err := svc.RenderCSV([]dto.UserAnalytics{{UserID: 1, Analytics: models.NewAnalyticsRecord(1)}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(svc.Headers(), ","), lines[0])
}

func TestRenderPDFProducesDocument(t *testing.T) {
	svc := newTestExportService()
	data, err := svc.RenderPDF([]dto.UserAnalytics{{UserID: 1, Analytics: models.NewAnalyticsRecord(1)}}, "Course Analytics")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}
