package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-analytics-api/internal/models"
)

// AttendanceRepository derives attendance metrics from completion tracking.
// The source schema keeps no per-session punch records, so completion state
// per course module is the closest available proxy.
type AttendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

type attendanceRow struct {
	UserID         int64  `db:"user_id"`
	ModuleID       int64  `db:"module_id"`
	ModuleName     string `db:"module_name"`
	AttendedCount  int    `db:"attended_count"`
	TotalSessions  int    `db:"total_sessions"`
	LastAttendance int64  `db:"last_attendance"`
}

// Collect returns attendance metrics keyed by user id and course module id.
// LateCount and AttendanceStreak are always 0; see models.AttendanceMetrics.
func (r *AttendanceRepository) Collect(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.AttendanceMetrics, error) {
	query := `
		SELECT
			c.user_id,
			cm.id AS module_id,
			m.name AS module_name,
			COUNT(CASE WHEN c.completion_state >= 1 THEN 1 END) AS attended_count,
			COUNT(c.id) AS total_sessions,
			COALESCE(EXTRACT(EPOCH FROM MAX(c.time_modified))::BIGINT, 0) AS last_attendance
		FROM course_module_completions c
		JOIN course_modules cm ON cm.id = c.course_module_id
		JOIN modules m ON m.id = cm.module_id
		WHERE cm.course_id = $1 AND c.user_id = ANY($2)
		GROUP BY c.user_id, cm.id, m.name`

	var rows []attendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	result := make(map[int64]map[int64]*models.AttendanceMetrics)
	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[int64]*models.AttendanceMetrics)
		}
		result[row.UserID][row.ModuleID] = &models.AttendanceMetrics{
			ModuleName:     row.ModuleName,
			AttendanceRate: rate100(row.AttendedCount, row.TotalSessions),
			AbsenceCount:   row.TotalSessions - row.AttendedCount,
			LastAttendance: row.LastAttendance,
		}
	}
	return result, nil
}
