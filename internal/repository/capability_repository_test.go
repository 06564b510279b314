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

func TestCapabilityRepositoryExistingTables(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCapabilityRepository(db)
	tables := []string{"h5p_contents", "scorm_track", "zoom_meetings"}

	rows := sqlmock.NewRows([]string{"table_name"}).
		AddRow("h5p_contents").
		AddRow("zoom_meetings")
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables")).
		WithArgs(pq.Array(tables)).
		WillReturnRows(rows)

	existing, err := repo.ExistingTables(context.Background(), tables)
	require.NoError(t, err)
	assert.True(t, existing["h5p_contents"])
	assert.True(t, existing["zoom_meetings"])
	assert.False(t, existing["scorm_track"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCapabilityRepositoryExistingTablesEmptyInput(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCapabilityRepository(db)
	existing, err := repo.ExistingTables(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, existing)
}
