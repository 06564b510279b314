package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-analytics-api/internal/models"
)

// BehaviorRepository collects scalar behavioural aggregates: deadline
// adherence from submissions, learning pace from the activity log and
// academic integrity from the optional plagiarism plugin.
type BehaviorRepository struct {
	db *sqlx.DB
}

func NewBehaviorRepository(db *sqlx.DB) *BehaviorRepository {
	return &BehaviorRepository{db: db}
}

type deadlineRow struct {
	UserID      int64 `db:"user_id"`
	OntimeCount int   `db:"ontime_count"`
	TotalCount  int   `db:"total_count"`
}

// CollectDeadlineAdherence returns the share of a user's submissions made on
// or before the due date, as a percentage. Assignments without a due date
// count as on time.
func (r *BehaviorRepository) CollectDeadlineAdherence(ctx context.Context, courseID int64, userIDs []int64) (map[int64]float64, error) {
	query := `
		SELECT
			s.user_id,
			COUNT(CASE WHEN a.due_date IS NULL OR s.time_modified <= a.due_date THEN 1 END) AS ontime_count,
			COUNT(s.id) AS total_count
		FROM assignment_submissions s
		JOIN assignments a ON a.id = s.assignment_id
		WHERE a.course_id = $1 AND s.user_id = ANY($2) AND s.status = 'submitted'
		GROUP BY s.user_id`

	var rows []deadlineRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]float64, len(rows))
	for _, row := range rows {
		result[row.UserID] = rate100(row.OntimeCount, row.TotalCount)
	}
	return result, nil
}

type paceRow struct {
	UserID       int64   `db:"user_id"`
	AvgPaceHours float64 `db:"avg_pace_hours"`
	ActiveDays   int     `db:"active_days"`
}

// CollectLearningPace returns the mean gap in hours between consecutive log
// events per user, plus the number of distinct active days.
func (r *BehaviorRepository) CollectLearningPace(ctx context.Context, courseID int64, userIDs []int64) (map[int64]*models.LearningPace, error) {
	query := `
		SELECT
			user_id,
			COALESCE(AVG(gap_hours), 0) AS avg_pace_hours,
			COUNT(DISTINCT active_day) AS active_days
		FROM (
			SELECT
				l.user_id,
				EXTRACT(EPOCH FROM (l.time_created - LAG(l.time_created) OVER (PARTITION BY l.user_id ORDER BY l.time_created))) / 3600 AS gap_hours,
				DATE(l.time_created) AS active_day
			FROM activity_log l
			WHERE l.course_id = $1 AND l.user_id = ANY($2)
		) gaps
		GROUP BY user_id`

	var rows []paceRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]*models.LearningPace, len(rows))
	for _, row := range rows {
		result[row.UserID] = &models.LearningPace{
			AvgPaceHours: round2(row.AvgPaceHours),
			ActiveDays:   row.ActiveDays,
		}
	}
	return result, nil
}

type integrityRow struct {
	UserID             int64   `db:"user_id"`
	AvgSimilarity      float64 `db:"avg_similarity"`
	SubmissionsChecked int     `db:"submissions_checked"`
}

// CollectAcademicIntegrity returns plagiarism scan aggregates per user.
func (r *BehaviorRepository) CollectAcademicIntegrity(ctx context.Context, courseID int64, userIDs []int64) (map[int64]*models.AcademicIntegrity, error) {
	query := `
		SELECT
			p.user_id,
			COALESCE(AVG(p.similarity_score), 0) AS avg_similarity,
			COUNT(p.id) AS submissions_checked
		FROM plagiarism_scores p
		JOIN course_modules cm ON cm.id = p.course_module_id
		WHERE cm.course_id = $1 AND p.user_id = ANY($2)
		GROUP BY p.user_id`

	var rows []integrityRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]*models.AcademicIntegrity, len(rows))
	for _, row := range rows {
		result[row.UserID] = &models.AcademicIntegrity{
			AvgSimilarity:      round2(row.AvgSimilarity),
			SubmissionsChecked: row.SubmissionsChecked,
		}
	}
	return result, nil
}
