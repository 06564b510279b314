package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-analytics-api/internal/models"
)

// richFeedbackThreshold is the minimum feedback length, in characters, for a
// graded comment to count as substantive.
const richFeedbackThreshold = 100

// AssignmentRepository collects submission, grading and feedback metrics for
// every assignment in a course.
type AssignmentRepository struct {
	db *sqlx.DB
}

func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

type assignmentAggregateRow struct {
	AssignmentID      int64   `db:"assignment_id"`
	Name              string  `db:"name"`
	AvgGradePct       float64 `db:"avg_grade_pct"`
	TotalSubmissions  int     `db:"total_submissions"`
	OntimeSubmissions int     `db:"ontime_submissions"`
	LateSubmissions   int     `db:"late_submissions"`
	SubmittedCount    int     `db:"submitted_count"`
}

type resubmissionRow struct {
	UserID            int64 `db:"user_id"`
	AssignmentID      int64 `db:"assignment_id"`
	ResubmissionCount int   `db:"resubmission_count"`
}

type feedbackRow struct {
	UserID            int64   `db:"user_id"`
	AssignmentID      int64   `db:"assignment_id"`
	AvgFeedbackLength float64 `db:"avg_feedback_length"`
	RichFeedbackCount int     `db:"rich_feedback_count"`
}

// Collect returns assignment metrics keyed by user id and assignment id. The
// grade and timeliness aggregates are computed over the whole requested user
// set and every assignment in the course appears for every user, so a user
// with no submissions still gets a complete entry per assignment. Ungraded
// submissions count as zero in the grade mean rather than being skipped.
// Resubmission counts and feedback richness are per-user overlays merged into
// the aggregate base.
func (r *AssignmentRepository) Collect(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.AssignmentMetrics, error) {
	ids := pq.Array(userIDs)

	aggregateQuery := `
		SELECT
			a.id AS assignment_id,
			a.name,
			AVG(COALESCE(g.final_grade / NULLIF(g.raw_grade_max, 0) * 100, 0)) AS avg_grade_pct,
			COUNT(s.id) AS total_submissions,
			COUNT(CASE WHEN s.id IS NOT NULL AND (a.due_date IS NULL OR s.time_modified <= a.due_date) THEN 1 END) AS ontime_submissions,
			COUNT(CASE WHEN a.due_date IS NOT NULL AND s.time_modified > a.due_date THEN 1 END) AS late_submissions,
			COUNT(CASE WHEN s.status = 'submitted' THEN 1 END) AS submitted_count
		FROM assignments a
		LEFT JOIN assignment_submissions s ON s.assignment_id = a.id AND s.user_id = ANY($2)
		LEFT JOIN grade_items gi ON gi.course_id = a.course_id AND gi.item_type = 'mod' AND gi.item_module = 'assign' AND gi.item_instance = a.id
		LEFT JOIN grade_grades g ON g.item_id = gi.id AND g.user_id = s.user_id
		WHERE a.course_id = $1
		GROUP BY a.id, a.name
		ORDER BY a.id`

	var aggregates []assignmentAggregateRow
	if err := r.db.SelectContext(ctx, &aggregates, aggregateQuery, courseID, ids); err != nil {
		return nil, err
	}

	result := make(map[int64]map[int64]*models.AssignmentMetrics, len(userIDs))
	for _, userID := range userIDs {
		perUser := make(map[int64]*models.AssignmentMetrics, len(aggregates))
		for _, row := range aggregates {
			perUser[row.AssignmentID] = &models.AssignmentMetrics{
				Name:                 row.Name,
				AvgGradePct:          round2(row.AvgGradePct),
				OntimeSubmissionRate: rate100(row.OntimeSubmissions, row.TotalSubmissions),
				LateSubmissions:      row.LateSubmissions,
				SubmittedCount:       row.SubmittedCount,
			}
		}
		result[userID] = perUser
	}

	resubmissionQuery := `
		SELECT s.user_id, s.assignment_id, COUNT(s.id) - 1 AS resubmission_count
		FROM assignment_submissions s
		JOIN assignments a ON a.id = s.assignment_id
		WHERE a.course_id = $1 AND s.user_id = ANY($2) AND s.status = 'submitted'
		GROUP BY s.user_id, s.assignment_id
		HAVING COUNT(s.id) > 1`

	var resubmissions []resubmissionRow
	if err := r.db.SelectContext(ctx, &resubmissions, resubmissionQuery, courseID, ids); err != nil {
		return nil, err
	}
	for _, row := range resubmissions {
		if base, ok := result[row.UserID][row.AssignmentID]; ok {
			base.ResubmissionCount = row.ResubmissionCount
		}
	}

	feedbackQuery := `
		SELECT
			g.user_id,
			gi.item_instance AS assignment_id,
			COALESCE(AVG(LENGTH(g.feedback)), 0) AS avg_feedback_length,
			COUNT(CASE WHEN LENGTH(g.feedback) > $3 THEN 1 END) AS rich_feedback_count
		FROM grade_grades g
		JOIN grade_items gi ON gi.id = g.item_id
		WHERE gi.course_id = $1 AND gi.item_type = 'mod' AND gi.item_module = 'assign'
			AND g.user_id = ANY($2) AND g.feedback IS NOT NULL
		GROUP BY g.user_id, gi.item_instance`

	var feedback []feedbackRow
	if err := r.db.SelectContext(ctx, &feedback, feedbackQuery, courseID, ids, richFeedbackThreshold); err != nil {
		return nil, err
	}
	for _, row := range feedback {
		if base, ok := result[row.UserID][row.AssignmentID]; ok {
			base.FeedbackRichness = &models.FeedbackRichness{
				AvgLength: round2(row.AvgFeedbackLength),
				RichCount: row.RichFeedbackCount,
			}
		}
	}

	return result, nil
}
