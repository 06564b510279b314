package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryCollect(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	userIDs := []int64{1, 2}

	aggregates := sqlmock.NewRows([]string{"assignment_id", "name", "avg_grade_pct", "total_submissions", "ontime_submissions", "late_submissions", "submitted_count"}).
		AddRow(7, "Essay", 70.0, 2, 1, 1, 2)
	// The grade mean must zero-fill ungraded submissions, so the query is
	// pinned down to the per-row COALESCE.
	mock.ExpectQuery(regexp.QuoteMeta("AVG(COALESCE(g.final_grade / NULLIF(g.raw_grade_max, 0) * 100, 0))")).
		WithArgs(int64(42), pq.Array(userIDs)).
		WillReturnRows(aggregates)

	resubmissions := sqlmock.NewRows([]string{"user_id", "assignment_id", "resubmission_count"}).
		AddRow(1, 7, 2).
		AddRow(1, 99, 3)
	mock.ExpectQuery(regexp.QuoteMeta("HAVING COUNT(s.id) > 1")).
		WithArgs(int64(42), pq.Array(userIDs)).
		WillReturnRows(resubmissions)

	feedback := sqlmock.NewRows([]string{"user_id", "assignment_id", "avg_feedback_length", "rich_feedback_count"}).
		AddRow(2, 7, 150.456, 1)
	mock.ExpectQuery(regexp.QuoteMeta("AND g.feedback IS NOT NULL")).
		WithArgs(int64(42), pq.Array(userIDs), richFeedbackThreshold).
		WillReturnRows(feedback)

	result, err := repo.Collect(context.Background(), 42, userIDs)
	require.NoError(t, err)
	require.Len(t, result, 2)

	// Course-level aggregates are copied to every requested user.
	for _, userID := range userIDs {
		require.Contains(t, result[userID], int64(7))
		entry := result[userID][7]
		assert.Equal(t, "Essay", entry.Name)
		assert.Equal(t, 70.0, entry.AvgGradePct)
		assert.Equal(t, 50.0, entry.OntimeSubmissionRate)
		assert.Equal(t, 1, entry.LateSubmissions)
		assert.Equal(t, 2, entry.SubmittedCount)
	}

	// Resubmissions only enrich existing assignment entries.
	assert.Equal(t, 2, result[1][7].ResubmissionCount)
	assert.NotContains(t, result[1], int64(99))
	assert.Zero(t, result[2][7].ResubmissionCount)

	// Feedback richness is a per-user overlay.
	require.NotNil(t, result[2][7].FeedbackRichness)
	assert.Equal(t, 150.46, result[2][7].FeedbackRichness.AvgLength)
	assert.Equal(t, 1, result[2][7].FeedbackRichness.RichCount)
	assert.Nil(t, result[1][7].FeedbackRichness)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCollectNoAssignments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	userIDs := []int64{5}

	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments a")).
		WithArgs(int64(9), pq.Array(userIDs)).
		WillReturnRows(sqlmock.NewRows([]string{"assignment_id", "name", "avg_grade_pct", "total_submissions", "ontime_submissions", "late_submissions", "submitted_count"}))
	mock.ExpectQuery(regexp.QuoteMeta("HAVING COUNT(s.id) > 1")).
		WithArgs(int64(9), pq.Array(userIDs)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "assignment_id", "resubmission_count"}))
	mock.ExpectQuery(regexp.QuoteMeta("AND g.feedback IS NOT NULL")).
		WithArgs(int64(9), pq.Array(userIDs), richFeedbackThreshold).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "assignment_id", "avg_feedback_length", "rich_feedback_count"}))

	result, err := repo.Collect(context.Background(), 9, userIDs)
	require.NoError(t, err)
	require.Contains(t, result, int64(5))
	assert.Empty(t, result[5])
	require.NoError(t, mock.ExpectationsWereMet())
}
