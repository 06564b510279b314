package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-analytics-api/internal/models"
)

// CourseRepository resolves courses and their enrollment sets.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository instantiates the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns the course or sql.ErrNoRows.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	const query = `SELECT id, short_name, full_name FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// EnrolledUsers lists users with an active enrollment in the course, ordered
// by last name then first name to match report display order.
func (r *CourseRepository) EnrolledUsers(ctx context.Context, courseID int64) ([]models.EnrolledUser, error) {
	const query = `SELECT u.id, u.first_name, u.last_name, u.email
        FROM users u
        JOIN enrollments e ON e.user_id = u.id
        WHERE e.course_id = $1 AND e.status = 'active'
        ORDER BY u.last_name, u.first_name`
	var users []models.EnrolledUser
	if err := r.db.SelectContext(ctx, &users, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrolled users: %w", err)
	}
	return users, nil
}
