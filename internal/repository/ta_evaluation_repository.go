package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-analytics-api/internal/models"
)

// TAEvaluationRepository collects grader activity per graded module instance:
// how thoroughly teaching staff rate and comment on student work.
type TAEvaluationRepository struct {
	db *sqlx.DB
}

func NewTAEvaluationRepository(db *sqlx.DB) *TAEvaluationRepository {
	return &TAEvaluationRepository{db: db}
}

type taEvaluationRow struct {
	UserID            int64   `db:"user_id"`
	ItemInstance      int64   `db:"item_instance"`
	ItemModule        string  `db:"item_module"`
	AvgTARating       float64 `db:"avg_ta_rating"`
	FeedbackCount     int     `db:"feedback_count"`
	AvgFeedbackLength float64 `db:"avg_feedback_length"`
}

// Collect returns grading metrics keyed by user id and graded module
// instance id.
func (r *TAEvaluationRepository) Collect(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.TAEvaluationMetrics, error) {
	query := `
		SELECT
			g.user_id,
			gi.item_instance,
			gi.item_module,
			COALESCE(AVG(g.final_grade / NULLIF(g.raw_grade_max, 0) * 100), 0) AS avg_ta_rating,
			COUNT(CASE WHEN g.feedback IS NOT NULL AND LENGTH(g.feedback) > 0 THEN 1 END) AS feedback_count,
			COALESCE(AVG(LENGTH(g.feedback)), 0) AS avg_feedback_length
		FROM grade_grades g
		JOIN grade_items gi ON gi.id = g.item_id
		WHERE gi.course_id = $1 AND gi.item_type = 'mod' AND g.user_id = ANY($2)
		GROUP BY g.user_id, gi.item_instance, gi.item_module`

	var rows []taEvaluationRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]map[int64]*models.TAEvaluationMetrics)
	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[int64]*models.TAEvaluationMetrics)
		}
		result[row.UserID][row.ItemInstance] = &models.TAEvaluationMetrics{
			Module:            row.ItemModule,
			AvgTARating:       round2(row.AvgTARating),
			FeedbackCount:     row.FeedbackCount,
			AvgFeedbackLength: round2(row.AvgFeedbackLength),
		}
	}
	return result, nil
}
