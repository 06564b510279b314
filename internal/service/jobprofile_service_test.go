package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-analytics-api/internal/dto"
	"github.com/noah-isme/course-analytics-api/internal/models"
)

type stubJobProfileRepo struct {
	stored map[int64]string
	getErr error
}

func (s *stubJobProfileRepo) Get(_ context.Context, courseID int64) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	value, ok := s.stored[courseID]
	return value, ok, nil
}

func (s *stubJobProfileRepo) Save(_ context.Context, courseID int64, value string) error {
	if s.stored == nil {
		s.stored = make(map[int64]string)
	}
	s.stored[courseID] = value
	return nil
}

func TestParsePercent(t *testing.T) {
	cases := []struct {
		input   string
		value   float64
		present bool
	}{
		{"60%", 60, true},
		{"60", 60, true},
		{" 12.5% ", 12.5, true},
		{"0%", 0, true},
		{"", 0, false},
		{"-", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		value, present := ParsePercent(tc.input)
		assert.Equal(t, tc.present, present, "input %q", tc.input)
		assert.Equal(t, tc.value, value, "input %q", tc.input)
	}
}

func TestComputeRow(t *testing.T) {
	// Absent components are excluded from the mean, not treated as zero.
	grade, skill := ComputeRow("10%", "60%", "-", "40%")
	assert.Equal(t, 50.0, grade)
	assert.Equal(t, 5.0, skill)

	grade, skill = ComputeRow("5%", "-", "60%", "40%")
	assert.Equal(t, 50.0, grade)
	assert.Equal(t, 2.5, skill)

	// No present components grades zero.
	grade, skill = ComputeRow("10%", "-", "", "-")
	assert.Equal(t, 0.0, grade)
	assert.Equal(t, 0.0, skill)

	// Absent weight yields zero skill regardless of grade.
	grade, skill = ComputeRow("-", "80%", "80%", "80%")
	assert.Equal(t, 80.0, grade)
	assert.Equal(t, 0.0, skill)

	// The skill derives from the unrounded mean even though the grade
	// displays as whole percent: mean 54.9 rounds up for the grade but
	// 1% * 54.9 / 100 stays 0.5, not 0.6.
	grade, skill = ComputeRow("1%", "54.9%", "-", "-")
	assert.Equal(t, 55.0, grade)
	assert.Equal(t, 0.5, skill)
}

func TestJobProfileGetDefaultsWhenUnsaved(t *testing.T) {
	svc := NewJobProfileService(&stubJobProfileRepo{}, nil, zap.NewNop())

	result, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultJobProfileRows(), result.Rows)
	assert.NotEmpty(t, result.TotalWeight)
}

func TestJobProfileGetDefaultsWhenMalformed(t *testing.T) {
	repo := &stubJobProfileRepo{stored: map[int64]string{1: "{not json"}}
	svc := NewJobProfileService(repo, nil, zap.NewNop())

	result, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultJobProfileRows(), result.Rows)
}

func TestJobProfileSaveRecomputesDerivedColumns(t *testing.T) {
	repo := &stubJobProfileRepo{}
	svc := NewJobProfileService(repo, nil, zap.NewNop())

	req := dto.JobProfileSaveRequest{Rows: []dto.JobProfileRowInput{
		{Skill: "Organizational Skills", Weight: "10%", System: "60%", Assignment: "-", Instructor: "40%"},
		{Skill: "Communication Skills", Weight: "5%", System: "", Assignment: "60%", Instructor: "40%"},
	}}

	result, err := svc.Save(context.Background(), 3, req)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	assert.Equal(t, "50%", result.Rows[0].UserGrade)
	assert.Equal(t, "5.0%", result.Rows[0].UserSkill)
	assert.Equal(t, "50%", result.Rows[1].UserGrade)
	assert.Equal(t, "2.5%", result.Rows[1].UserSkill)

	// Absent components are normalised to "-".
	assert.Equal(t, "-", result.Rows[0].Assignment)
	assert.Equal(t, "-", result.Rows[1].System)

	assert.Equal(t, "15%", result.TotalWeight)
	assert.Equal(t, "7.5%", result.TotalUserSkill)

	// A later Get returns the recomputed rows, not the defaults.
	var persisted []models.JobProfileRow
	require.NoError(t, json.Unmarshal([]byte(repo.stored[3]), &persisted))
	assert.Equal(t, result.Rows, persisted)

	loaded, err := svc.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, result.Rows, loaded.Rows)
}

func TestJobProfileSaveInvalidatesAnalyticsCache(t *testing.T) {
	cacheRepo := newMemCacheRepo()
	cacheRepo.entries["analytics:course:3"] = []byte(`[]`)
	cacheRepo.entries["analytics:course:3:user:1"] = []byte(`[]`)
	cacheRepo.entries["analytics:course:4"] = []byte(`[]`)
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, zap.NewNop(), true)

	repo := &stubJobProfileRepo{}
	svc := NewJobProfileService(repo, cache, zap.NewNop())

	_, err := svc.Save(context.Background(), 3, dto.JobProfileSaveRequest{Rows: []dto.JobProfileRowInput{}})
	require.NoError(t, err)

	assert.Equal(t, []string{"analytics:course:3*"}, cacheRepo.patterns)
	assert.NotContains(t, cacheRepo.entries, "analytics:course:3")
	assert.NotContains(t, cacheRepo.entries, "analytics:course:3:user:1")
	assert.Contains(t, cacheRepo.entries, "analytics:course:4")
}

func TestJobProfileSaveEmptyRowsPersistsEmptyDataset(t *testing.T) {
	repo := &stubJobProfileRepo{}
	svc := NewJobProfileService(repo, nil, zap.NewNop())

	result, err := svc.Save(context.Background(), 4, dto.JobProfileSaveRequest{Rows: []dto.JobProfileRowInput{}})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.Equal(t, "0%", result.TotalWeight)
	assert.Equal(t, "0.0%", result.TotalUserSkill)
}
