package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-analytics-api/internal/models"
)

// BadgeRepository collects earned badges and issued certificates. Both come
// from optional plugin tables gated by the capability registry.
type BadgeRepository struct {
	db *sqlx.DB
}

func NewBadgeRepository(db *sqlx.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

type badgeRow struct {
	UserID      int64  `db:"user_id"`
	BadgeID     int64  `db:"badge_id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	DateEarned  int64  `db:"date_earned"`
	UniqueHash  string `db:"unique_hash"`
}

// CollectBadges returns earned badges keyed by user id and badge id.
func (r *BadgeRepository) CollectBadges(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.BadgeMetrics, error) {
	query := `
		SELECT
			bi.user_id,
			b.id AS badge_id,
			b.name,
			b.description,
			COALESCE(EXTRACT(EPOCH FROM bi.date_issued)::BIGINT, 0) AS date_earned,
			bi.unique_hash
		FROM badge_issues bi
		JOIN badges b ON b.id = bi.badge_id
		WHERE b.course_id = $1 AND bi.user_id = ANY($2)`

	var rows []badgeRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]map[int64]*models.BadgeMetrics)
	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[int64]*models.BadgeMetrics)
		}
		result[row.UserID][row.BadgeID] = &models.BadgeMetrics{
			Name:        row.Name,
			Description: row.Description,
			DateEarned:  row.DateEarned,
			UniqueHash:  row.UniqueHash,
		}
	}
	return result, nil
}

type certificateRow struct {
	UserID        int64  `db:"user_id"`
	CertificateID int64  `db:"certificate_id"`
	Name          string `db:"name"`
	DateAchieved  int64  `db:"date_achieved"`
	Code          string `db:"code"`
}

// CollectCertificates returns issued certificates keyed by user id and
// certificate id.
func (r *BadgeRepository) CollectCertificates(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.CertificateMetrics, error) {
	query := `
		SELECT
			ci.user_id,
			c.id AS certificate_id,
			c.name,
			COALESCE(EXTRACT(EPOCH FROM ci.time_created)::BIGINT, 0) AS date_achieved,
			ci.code
		FROM certificate_issues ci
		JOIN certificates c ON c.id = ci.certificate_id
		WHERE c.course_id = $1 AND ci.user_id = ANY($2)`

	var rows []certificateRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]map[int64]*models.CertificateMetrics)
	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[int64]*models.CertificateMetrics)
		}
		result[row.UserID][row.CertificateID] = &models.CertificateMetrics{
			Name:         row.Name,
			DateAchieved: row.DateAchieved,
			Code:         row.Code,
		}
	}
	return result, nil
}
