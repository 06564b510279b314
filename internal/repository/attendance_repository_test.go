package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceRepositoryCollect(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	userIDs := []int64{4}

	rows := sqlmock.NewRows([]string{"user_id", "module_id", "module_name", "attended_count", "total_sessions", "last_attendance"}).
		AddRow(4, 21, "lesson", 3, 4, 1700000000)
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_module_completions c")).
		WithArgs(int64(6), pq.Array(userIDs)).
		WillReturnRows(rows)

	result, err := repo.Collect(context.Background(), 6, userIDs)
	require.NoError(t, err)

	entry := result[4][21]
	require.NotNil(t, entry)
	assert.Equal(t, "lesson", entry.ModuleName)
	assert.Equal(t, 75.0, entry.AttendanceRate)
	assert.Equal(t, 1, entry.AbsenceCount)
	assert.Equal(t, int64(1700000000), entry.LastAttendance)

	// No punch data exists, these stay zero.
	assert.Zero(t, entry.LateCount)
	assert.Zero(t, entry.AttendanceStreak)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRate100ZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, rate100(3, 0))
	assert.Equal(t, 100.0, rate100(4, 4))
	assert.Equal(t, 33.33, rate100(1, 3))
}
