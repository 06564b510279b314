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

func TestForumRepositoryCollect(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewForumRepository(db)
	userIDs := []int64{3}

	activity := sqlmock.NewRows([]string{"user_id", "forum_id", "forum_name", "posts_created", "replies_made", "avg_response_latency", "posts_with_ratings", "avg_peer_rating"}).
		AddRow(3, 11, "General", 4, 6, 32.759, 2, 4.25)
	mock.ExpectQuery(regexp.QuoteMeta("FROM forum_posts p")).
		WithArgs(int64(8), pq.Array(userIDs)).
		WillReturnRows(activity)

	replies := sqlmock.NewRows([]string{"user_id", "forum_id", "instructor_replies"}).
		AddRow(3, 11, 2).
		AddRow(3, 99, 5)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN forum_posts reply")).
		WithArgs(int64(8), pq.Array(userIDs)).
		WillReturnRows(replies)

	result, err := repo.Collect(context.Background(), 8, userIDs)
	require.NoError(t, err)

	entry := result[3][11]
	require.NotNil(t, entry)
	assert.Equal(t, "General", entry.Name)
	assert.Equal(t, 4, entry.PostsCreated)
	assert.Equal(t, 6, entry.RepliesMade)
	assert.Equal(t, 32.76, entry.AvgResponseLatency)
	assert.Equal(t, 2, entry.PostsWithRatings)
	assert.Equal(t, 4.25, entry.AvgPeerRating)
	assert.Equal(t, 2, entry.InstructorReplies)

	// Instructor replies without a matching activity entry are dropped.
	assert.NotContains(t, result[3], int64(99))
	require.NoError(t, mock.ExpectationsWereMet())
}
