package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-analytics-api/internal/models"
)

// InteractiveContentRepository collects H5P, video and SCORM engagement
// metrics. H5P and SCORM depend on optional plugin tables and each collector
// is gated separately by the capability registry; video activity comes from
// the always-present activity log.
type InteractiveContentRepository struct {
	db *sqlx.DB
}

func NewInteractiveContentRepository(db *sqlx.DB) *InteractiveContentRepository {
	return &InteractiveContentRepository{db: db}
}

type h5pRow struct {
	UserID           int64   `db:"user_id"`
	ContentID        int64   `db:"content_id"`
	Title            string  `db:"title"`
	InteractionCount int     `db:"interaction_count"`
	AvgScore         float64 `db:"avg_score"`
	LastInteraction  int64   `db:"last_interaction"`
}

// CollectH5P returns H5P interaction metrics keyed by user id and content id.
func (r *InteractiveContentRepository) CollectH5P(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.H5PMetrics, error) {
	query := `
		SELECT
			d.user_id,
			c.id AS content_id,
			c.title,
			COUNT(d.id) AS interaction_count,
			COALESCE(AVG(d.score), 0) AS avg_score,
			COALESCE(EXTRACT(EPOCH FROM MAX(d.created_at))::BIGINT, 0) AS last_interaction
		FROM h5p_user_data d
		JOIN h5p_contents c ON c.id = d.content_id
		WHERE c.course_id = $1 AND d.user_id = ANY($2)
		GROUP BY d.user_id, c.id, c.title`

	var rows []h5pRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]map[int64]*models.H5PMetrics)
	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[int64]*models.H5PMetrics)
		}
		result[row.UserID][row.ContentID] = &models.H5PMetrics{
			Title:               row.Title,
			InteractionCount:    row.InteractionCount,
			AvgInteractionScore: round2(row.AvgScore),
			LastInteraction:     row.LastInteraction,
		}
	}
	return result, nil
}

type videoRow struct {
	UserID         int64   `db:"user_id"`
	ModuleID       int64   `db:"module_id"`
	ViewCount      int     `db:"view_count"`
	CompletionRate float64 `db:"completion_rate"`
	LastView       int64   `db:"last_view"`
}

// CollectVideo derives video engagement from the activity log, keyed by user
// id and course module id.
func (r *InteractiveContentRepository) CollectVideo(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.VideoMetrics, error) {
	query := `
		SELECT
			l.user_id,
			cm.id AS module_id,
			COUNT(l.id) AS view_count,
			COALESCE(AVG(CASE WHEN l.action = 'completed' THEN 100.0 ELSE 0 END), 0) AS completion_rate,
			COALESCE(EXTRACT(EPOCH FROM MAX(l.time_created))::BIGINT, 0) AS last_view
		FROM activity_log l
		JOIN course_modules cm ON cm.id = l.context_module_id
		JOIN modules m ON m.id = cm.module_id AND m.name = 'video'
		WHERE l.course_id = $1 AND l.user_id = ANY($2)
		GROUP BY l.user_id, cm.id`

	var rows []videoRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]map[int64]*models.VideoMetrics)
	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[int64]*models.VideoMetrics)
		}
		result[row.UserID][row.ModuleID] = &models.VideoMetrics{
			ViewCount:      row.ViewCount,
			CompletionRate: round2(row.CompletionRate),
			LastView:       row.LastView,
		}
	}
	return result, nil
}

type scormRow struct {
	UserID           int64   `db:"user_id"`
	ScormID          int64   `db:"scorm_id"`
	InteractionCount int     `db:"interaction_count"`
	AvgScore         float64 `db:"avg_score"`
	LastInteraction  int64   `db:"last_interaction"`
}

// CollectSCORM returns SCORM tracking metrics keyed by user id and package id.
func (r *InteractiveContentRepository) CollectSCORM(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.SCORMMetrics, error) {
	query := `
		SELECT
			t.user_id,
			t.scorm_id,
			COUNT(t.id) AS interaction_count,
			COALESCE(AVG(CASE WHEN t.element = 'cmi.core.score.raw' THEN t.value::NUMERIC END), 0) AS avg_score,
			COALESCE(EXTRACT(EPOCH FROM MAX(t.time_modified))::BIGINT, 0) AS last_interaction
		FROM scorm_track t
		JOIN scorm_packages s ON s.id = t.scorm_id
		WHERE s.course_id = $1 AND t.user_id = ANY($2)
		GROUP BY t.user_id, t.scorm_id`

	var rows []scormRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]map[int64]*models.SCORMMetrics)
	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[int64]*models.SCORMMetrics)
		}
		result[row.UserID][row.ScormID] = &models.SCORMMetrics{
			InteractionCount: row.InteractionCount,
			AvgScore:         round2(row.AvgScore),
			LastInteraction:  row.LastInteraction,
		}
	}
	return result, nil
}
