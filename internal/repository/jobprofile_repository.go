package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// jobProfileSettingKey is the per-course settings slot holding the serialized
// job profile dataset.
const jobProfileSettingKey = "job_profile"

// JobProfileRepository stores the job profile dataset as a JSON blob in the
// per-course settings table.
type JobProfileRepository struct {
	db *sqlx.DB
}

func NewJobProfileRepository(db *sqlx.DB) *JobProfileRepository {
	return &JobProfileRepository{db: db}
}

// Get returns the raw serialized dataset for a course, or ("", false) when no
// profile has been saved yet.
func (r *JobProfileRepository) Get(ctx context.Context, courseID int64) (string, bool, error) {
	query := `SELECT value FROM course_settings WHERE course_id = $1 AND name = $2`

	var value string
	err := r.db.GetContext(ctx, &value, query, courseID, jobProfileSettingKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Save upserts the serialized dataset for a course.
func (r *JobProfileRepository) Save(ctx context.Context, courseID int64, value string) error {
	query := `
		INSERT INTO course_settings (course_id, name, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (course_id, name)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, courseID, jobProfileSettingKey, value)
	return err
}
