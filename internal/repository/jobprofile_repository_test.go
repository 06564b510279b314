package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobProfileRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewJobProfileRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM course_settings")).
		WithArgs(int64(3), jobProfileSettingKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	value, found, err := repo.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobProfileRepositorySaveAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewJobProfileRepository(db)
	payload := `[{"skill":"Teamwork"}]`

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_settings")).
		WithArgs(int64(3), jobProfileSettingKey, payload).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Save(context.Background(), 3, payload))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM course_settings")).
		WithArgs(int64(3), jobProfileSettingKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(payload))

	value, found, err := repo.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload, value)
	require.NoError(t, mock.ExpectationsWereMet())
}
