package service

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-analytics-api/internal/dto"
	"github.com/noah-isme/course-analytics-api/internal/models"
	"github.com/noah-isme/course-analytics-api/pkg/export"
)

// csvColumns is the fixed column order for flat exports. Rows and headers
// must stay in lockstep.
var csvColumns = []string{
	"UserID", "FirstName", "LastName", "Email",
	"AssignAvgGrade%", "AssignOntime%", "ResubmissionCount", "FeedbackRichness",
	"H5PInteractions", "VideoCompletion%", "SCORMScore",
	"LiveSessionsAttended%", "Punctuality%", "PollsAnswered%", "HandsRaised",
	"ForumPosts", "ForumReplies", "ResponseLatency", "InstructorEngagement", "PeerRating",
	"Attendance%", "Late%", "Absence%", "AttendanceStreak",
	"CompetencyRating", "ProficiencyAchieved", "EvidenceCount", "DateAchieved",
	"BadgesEarned", "CertificateAchieved", "TimeToCertificate",
	"DeadlineAdherence%", "LearningPace", "AcademicIntegrity%",
	"TARating%", "TANotesCount",
}

// ExportService flattens analytics records into tabular datasets and renders
// CSV and PDF documents.
type ExportService struct {
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	metrics *MetricsService
	logger  *zap.Logger
}

// NewExportService constructs an export service.
func NewExportService(csv *export.CSVExporter, pdf *export.PDFExporter, metrics *MetricsService, logger *zap.Logger) *ExportService {
	return &ExportService{csv: csv, pdf: pdf, metrics: metrics, logger: logger}
}

// Headers returns the fixed export column order.
func (s *ExportService) Headers() []string {
	return csvColumns
}

// Dataset flattens one row per user in input order. One-to-many sub-maps
// collapse to a scalar: rates and averages by mean, counts by sum, an empty
// map always yields 0.
func (s *ExportService) Dataset(users []dto.UserAnalytics) export.Dataset {
	rows := make([]map[string]string, 0, len(users))
	for _, user := range users {
		rows = append(rows, flattenUser(user))
	}
	return export.Dataset{Headers: csvColumns, Rows: rows}
}

// Filename builds the canonical export filename for a course.
func (s *ExportService) Filename(courseShortName string, now time.Time) string {
	return fmt.Sprintf("analytics_%s_%d.csv", courseShortName, now.Unix())
}

// RenderCSV renders the flattened dataset as CSV bytes.
func (s *ExportService) RenderCSV(users []dto.UserAnalytics) ([]byte, error) {
	data, err := s.csv.Render(s.Dataset(users))
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	s.metrics.RecordReportExport("csv")
	return data, nil
}

// RenderPDF renders the flattened dataset as a tabular PDF.
func (s *ExportService) RenderPDF(users []dto.UserAnalytics, title string) ([]byte, error) {
	data, err := s.pdf.Render(s.Dataset(users), title)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	s.metrics.RecordReportExport("pdf")
	return data, nil
}

func flattenUser(user dto.UserAnalytics) map[string]string {
	record := user.Analytics
	if record == nil {
		record = models.NewAnalyticsRecord(user.UserID)
	}

	var (
		assignGrades, assignOntime  meanAcc
		resubmissions, richFeedback int
		h5pInteractions             int
		videoCompletion             meanAcc
		scormScore                  meanAcc
		sessionsAttended            int
		punctuality                 meanAcc
		pollsAnswered, handsRaised  int
	)

	for _, a := range record.Assignments {
		assignGrades.add(a.AvgGradePct)
		assignOntime.add(a.OntimeSubmissionRate)
		resubmissions += a.ResubmissionCount
		if a.FeedbackRichness != nil {
			richFeedback += a.FeedbackRichness.RichCount
		}
	}
	for _, h := range record.InteractiveContent.H5P {
		h5pInteractions += h.InteractionCount
	}
	for _, v := range record.InteractiveContent.Video {
		videoCompletion.add(v.CompletionRate)
	}
	for _, sc := range record.InteractiveContent.SCORM {
		scormScore.add(sc.AvgScore)
	}
	for _, b := range record.LiveSessions.BigBlueButton {
		sessionsAttended += b.SessionsAttended
		punctuality.add(b.PunctualityRate)
		pollsAnswered += b.PollsAnswered
		handsRaised += b.HandsRaised
	}
	for _, z := range record.LiveSessions.Zoom {
		sessionsAttended += z.SessionsAttended
		punctuality.add(z.PunctualityRate)
	}

	var (
		forumPosts, forumReplies, instructorReplies int
		responseLatency, peerRating                 meanAcc
	)
	for _, f := range record.Forums {
		forumPosts += f.PostsCreated
		forumReplies += f.RepliesMade
		responseLatency.add(f.AvgResponseLatency)
		peerRating.add(f.AvgPeerRating)
		instructorReplies += f.InstructorReplies
	}

	var (
		attendanceRate          meanAcc
		lateCount, absenceCount int
		attendanceStreak        int
	)
	for _, a := range record.Attendance {
		attendanceRate.add(a.AttendanceRate)
		lateCount += a.LateCount
		absenceCount += a.AbsenceCount
		if a.AttendanceStreak > attendanceStreak {
			attendanceStreak = a.AttendanceStreak
		}
	}

	var (
		competencyRating          meanAcc
		proficiencies, evidence   int
		lastDateAchieved          int64
	)
	for _, c := range record.Competencies {
		competencyRating.add(c.Rating)
		if c.ProficiencyAchieved {
			proficiencies++
		}
		evidence += c.EvidenceCount
		if c.DateAchieved > lastDateAchieved {
			lastDateAchieved = c.DateAchieved
		}
	}

	var (
		taRating     meanAcc
		taNotesCount int
	)
	for _, t := range record.TAEvaluation {
		taRating.add(t.AvgTARating)
		taNotesCount += t.FeedbackCount
	}

	var learningPace float64
	if record.Behavioral.LearningPace != nil {
		learningPace = record.Behavioral.LearningPace.AvgPaceHours
	}
	var integrity float64
	if record.Behavioral.AcademicIntegrity != nil {
		integrity = record.Behavioral.AcademicIntegrity.AvgSimilarity
	}

	return map[string]string{
		"UserID":                formatInt64(user.UserID),
		"FirstName":             user.FirstName,
		"LastName":              user.LastName,
		"Email":                 user.Email,
		"AssignAvgGrade%":       formatFloat(assignGrades.mean()),
		"AssignOntime%":         formatFloat(assignOntime.mean()),
		"ResubmissionCount":     formatInt(resubmissions),
		"FeedbackRichness":      formatInt(richFeedback),
		"H5PInteractions":       formatInt(h5pInteractions),
		"VideoCompletion%":      formatFloat(videoCompletion.mean()),
		"SCORMScore":            formatFloat(scormScore.mean()),
		"LiveSessionsAttended%": formatInt(sessionsAttended),
		"Punctuality%":          formatFloat(punctuality.mean()),
		"PollsAnswered%":        formatInt(pollsAnswered),
		"HandsRaised":           formatInt(handsRaised),
		"ForumPosts":            formatInt(forumPosts),
		"ForumReplies":          formatInt(forumReplies),
		"ResponseLatency":       formatFloat(responseLatency.mean()),
		"InstructorEngagement":  formatInt(instructorReplies),
		"PeerRating":            formatFloat(peerRating.mean()),
		"Attendance%":           formatFloat(attendanceRate.mean()),
		"Late%":                 formatInt(lateCount),
		"Absence%":              formatInt(absenceCount),
		"AttendanceStreak":      formatInt(attendanceStreak),
		"CompetencyRating":      formatFloat(competencyRating.mean()),
		"ProficiencyAchieved":   formatInt(proficiencies),
		"EvidenceCount":         formatInt(evidence),
		"DateAchieved":          formatInt64(lastDateAchieved),
		"BadgesEarned":          formatInt(len(record.Badges)),
		"CertificateAchieved":   formatInt(len(record.Certificates)),
		// No enrolment-to-issue interval in the source data.
		"TimeToCertificate":   "0",
		"DeadlineAdherence%":  formatFloat(record.Behavioral.DeadlineAdherence),
		"LearningPace":        formatFloat(learningPace),
		"AcademicIntegrity%":  formatFloat(integrity),
		"TARating%":           formatFloat(taRating.mean()),
		"TANotesCount":        formatInt(taNotesCount),
	}
}

// meanAcc accumulates a running mean, reporting 0 when nothing was added.
type meanAcc struct {
	sum   float64
	count int
}

func (m *meanAcc) add(v float64) {
	m.sum += v
	m.count++
}

func (m *meanAcc) mean() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', -1, 64)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}

func formatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

// round2 keeps exported scalars at the same precision the adapters emit.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
