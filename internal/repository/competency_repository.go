package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-analytics-api/internal/models"
)

// CompetencyRepository collects framework ratings and supporting evidence.
// Ratings and evidence live in separate optional plugin tables and are gated
// independently; evidence is an overlay merged into competencies the user
// already has a rating for.
type CompetencyRepository struct {
	db *sqlx.DB
}

func NewCompetencyRepository(db *sqlx.DB) *CompetencyRepository {
	return &CompetencyRepository{db: db}
}

type competencyRatingRow struct {
	UserID       int64   `db:"user_id"`
	CompetencyID int64   `db:"competency_id"`
	Shortname    string  `db:"shortname"`
	Description  string  `db:"description"`
	Grade        float64 `db:"grade"`
	Proficiency  bool    `db:"proficiency"`
	Status       int     `db:"status"`
	DateAchieved int64   `db:"date_achieved"`
	LastUpdated  int64   `db:"last_updated"`
}

// CollectRatings returns competency ratings keyed by user id and competency
// id.
func (r *CompetencyRepository) CollectRatings(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.CompetencyMetrics, error) {
	query := `
		SELECT
			ur.user_id,
			c.id AS competency_id,
			c.shortname,
			c.description,
			COALESCE(ur.grade, 0) AS grade,
			ur.proficiency,
			ur.status,
			COALESCE(EXTRACT(EPOCH FROM ur.time_created)::BIGINT, 0) AS date_achieved,
			COALESCE(EXTRACT(EPOCH FROM ur.time_modified)::BIGINT, 0) AS last_updated
		FROM competency_user_ratings ur
		JOIN competencies c ON c.id = ur.competency_id
		WHERE c.course_id = $1 AND ur.user_id = ANY($2)`

	var rows []competencyRatingRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]map[int64]*models.CompetencyMetrics)
	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[int64]*models.CompetencyMetrics)
		}
		result[row.UserID][row.CompetencyID] = &models.CompetencyMetrics{
			Shortname:           row.Shortname,
			Description:         row.Description,
			Rating:              round2(row.Grade),
			ProficiencyAchieved: row.Proficiency,
			Status:              row.Status,
			DateAchieved:        row.DateAchieved,
			LastUpdated:         row.LastUpdated,
		}
	}
	return result, nil
}

// CollectEvidence returns evidence counts per user and competency, scoped to
// the course's competency framework.
func (r *CompetencyRepository) CollectEvidence(ctx context.Context, courseID int64, userIDs []int64) ([]models.CompetencyEvidence, error) {
	query := `
		SELECT
			e.user_id,
			e.competency_id,
			COUNT(e.id) AS evidence_count,
			COALESCE(EXTRACT(EPOCH FROM MAX(e.time_modified))::BIGINT, 0) AS last_evidence
		FROM competency_evidence e
		JOIN competencies c ON c.id = e.competency_id
		WHERE c.course_id = $1 AND e.user_id = ANY($2)
		GROUP BY e.user_id, e.competency_id`

	var rows []models.CompetencyEvidence
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}
	return rows, nil
}
