package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-analytics-api/internal/models"
)

// LiveSessionRepository collects BigBlueButton and Zoom participation
// metrics. Both backing plugins are optional and gated by the capability
// registry.
type LiveSessionRepository struct {
	db *sqlx.DB
}

func NewLiveSessionRepository(db *sqlx.DB) *LiveSessionRepository {
	return &LiveSessionRepository{db: db}
}

type bbbRow struct {
	UserID           int64   `db:"user_id"`
	InstanceID       int64   `db:"instance_id"`
	SessionsAttended int     `db:"sessions_attended"`
	TotalMinutes     int     `db:"total_minutes"`
	PunctualityRate  float64 `db:"punctuality_rate"`
	PollsAnswered    int     `db:"polls_answered"`
	HandsRaised      int     `db:"hands_raised"`
}

// CollectBigBlueButton returns BBB session metrics keyed by user id and
// meeting instance id.
func (r *LiveSessionRepository) CollectBigBlueButton(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.BigBlueButtonMetrics, error) {
	query := `
		SELECT
			l.user_id,
			b.id AS instance_id,
			COUNT(CASE WHEN l.event = 'meeting_joined' THEN 1 END) AS sessions_attended,
			COALESCE(SUM(l.duration_minutes), 0) AS total_minutes,
			COALESCE(AVG(CASE WHEN l.event = 'meeting_joined' THEN 100.0 ELSE 0 END), 0) AS punctuality_rate,
			COUNT(CASE WHEN l.event = 'poll_answered' THEN 1 END) AS polls_answered,
			COUNT(CASE WHEN l.event = 'hand_raised' THEN 1 END) AS hands_raised
		FROM bbb_logs l
		JOIN bbb_instances b ON b.id = l.bbb_id
		WHERE b.course_id = $1 AND l.user_id = ANY($2)
		GROUP BY l.user_id, b.id`

	var rows []bbbRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]map[int64]*models.BigBlueButtonMetrics)
	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[int64]*models.BigBlueButtonMetrics)
		}
		result[row.UserID][row.InstanceID] = &models.BigBlueButtonMetrics{
			SessionsAttended: row.SessionsAttended,
			TotalMinutes:     row.TotalMinutes,
			PunctualityRate:  round2(row.PunctualityRate),
			PollsAnswered:    row.PollsAnswered,
			HandsRaised:      row.HandsRaised,
		}
	}
	return result, nil
}

type zoomRow struct {
	UserID           int64   `db:"user_id"`
	MeetingID        int64   `db:"meeting_id"`
	SessionsAttended int     `db:"sessions_attended"`
	TotalMinutes     int     `db:"total_minutes"`
	PunctualityRate  float64 `db:"punctuality_rate"`
}

// CollectZoom returns Zoom participation metrics keyed by user id and meeting
// id. A join at or before the scheduled start counts as punctual.
func (r *LiveSessionRepository) CollectZoom(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.ZoomMetrics, error) {
	query := `
		SELECT
			p.user_id,
			p.meeting_id,
			COUNT(p.id) AS sessions_attended,
			COALESCE(SUM(p.duration_minutes), 0) AS total_minutes,
			COALESCE(AVG(CASE WHEN p.join_time <= m.start_time THEN 100.0 ELSE 0 END), 0) AS punctuality_rate
		FROM zoom_participants p
		JOIN zoom_meetings m ON m.id = p.meeting_id
		WHERE m.course_id = $1 AND p.user_id = ANY($2)
		GROUP BY p.user_id, p.meeting_id`

	var rows []zoomRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]map[int64]*models.ZoomMetrics)
	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[int64]*models.ZoomMetrics)
		}
		result[row.UserID][row.MeetingID] = &models.ZoomMetrics{
			SessionsAttended: row.SessionsAttended,
			TotalMinutes:     row.TotalMinutes,
			PunctualityRate:  round2(row.PunctualityRate),
		}
	}
	return result, nil
}
