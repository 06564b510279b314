package handler

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-analytics-api/internal/models"
	"github.com/noah-isme/course-analytics-api/internal/service"
	appErrors "github.com/noah-isme/course-analytics-api/pkg/errors"
	"github.com/noah-isme/course-analytics-api/pkg/response"
)

// dashboardTemplate renders the flattened analytics dataset as a simple
// report table.
const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Course Analytics - {{.CourseName}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; font-size: 0.75em; }
th, td { border: 1px solid #999; padding: 4px 6px; text-align: left; }
th { background: #eee; position: sticky; top: 0; }
tr:nth-child(even) { background: #f7f7f7; }
</style>
</head>
<body>
<h1>Course Analytics: {{.CourseName}}</h1>
<p>{{.UserCount}} user(s), generated {{.GeneratedAt}}</p>
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{$row := .}}{{range $.Headers}}<td>{{index $row .}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>`

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardTemplate))

type dashboardData struct {
	CourseName  string
	UserCount   int
	GeneratedAt string
	Headers     []string
	Rows        []map[string]string
}

// ReportHandler serves the multi-format report surface.
type ReportHandler struct {
	analytics  *service.AnalyticsService
	exports    *service.ExportService
	pdfEnabled bool
}

// NewReportHandler constructs the report handler.
func NewReportHandler(analytics *service.AnalyticsService, exports *service.ExportService, pdfEnabled bool) *ReportHandler {
	return &ReportHandler{analytics: analytics, exports: exports, pdfEnabled: pdfEnabled}
}

// Report godoc
// @Summary Course analytics report
// @Description Renders the course analytics as an HTML dashboard, JSON payload, CSV download or PDF document.
// @Tags reports
// @Produce json
// @Param id query int true "Course ID"
// @Param userid query int false "User ID (0 = all enrolled)"
// @Param format query string false "Output format" Enums(html, json, csv, pdf) default(html)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /report [get]
func (h *ReportHandler) Report(c *gin.Context) {
	if h.analytics == nil || h.exports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	courseID, err := parseQueryID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	userID, err := parseOptionalUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.DefaultQuery("format", "html")
	switch format {
	case "html", "json", "csv", "pdf":
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported format"))
		return
	}
	if format == "pdf" && !h.pdfEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "pdf export disabled"))
		return
	}

	course, users, _, err := h.analytics.ComprehensiveAnalytics(c.Request.Context(), courseID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch format {
	case "json":
		// The JSON format is the raw record mapping keyed by user id,
		// not the enveloped identity list.
		records := make(map[int64]*models.AnalyticsRecord, len(users))
		for _, user := range users {
			records[user.UserID] = user.Analytics
		}
		c.JSON(http.StatusOK, records)
	case "csv":
		data, err := h.exports.RenderCSV(users)
		if err != nil {
			response.Error(c, err)
			return
		}
		filename := h.exports.Filename(course.ShortName, time.Now())
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := h.exports.RenderPDF(users, "Course Analytics: "+course.FullName)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		dataset := h.exports.Dataset(users)
		payload := dashboardData{
			CourseName:  course.FullName,
			UserCount:   len(users),
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Headers:     dataset.Headers,
			Rows:        dataset.Rows,
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusOK)
		if err := dashboardTmpl.Execute(c.Writer, payload); err != nil {
			_ = c.Error(err)
		}
	}
}
