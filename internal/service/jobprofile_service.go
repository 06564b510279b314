package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/course-analytics-api/internal/dto"
	"github.com/noah-isme/course-analytics-api/internal/models"
)

// JobProfileRepository persists the serialized per-course dataset.
type JobProfileRepository interface {
	Get(ctx context.Context, courseID int64) (string, bool, error)
	Save(ctx context.Context, courseID int64, value string) error
}

// ParsePercent converts a percent display string to its numeric value. An
// empty string or "-" marks the component absent, as does anything that does
// not parse as a number.
func ParsePercent(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if trimmed == "" || trimmed == "-" {
		return 0, false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ComputeRow derives the grade and skill columns for one row. The grade is
// the mean of the present components; the skill is weight * mean / 100.
// The grade rounds to whole percent for display only, so the skill carries
// the unrounded mean. Absent components are excluded from the mean, and a
// row with no present components grades 0.
func ComputeRow(weight, system, assignment, instructor string) (userGrade, userSkill float64) {
	var sum float64
	var count int
	for _, component := range []string{system, assignment, instructor} {
		if value, ok := ParsePercent(component); ok {
			sum += value
			count++
		}
	}
	var mean float64
	if count > 0 {
		mean = sum / float64(count)
		userGrade = math.Round(mean)
	}
	if weightValue, ok := ParsePercent(weight); ok {
		userSkill = math.Round(weightValue*mean/100*10) / 10
	}
	return userGrade, userSkill
}

// FormatPercent renders a numeric value back into a percent display string
// with the given number of decimals.
func FormatPercent(value float64, decimals int) string {
	return strconv.FormatFloat(value, 'f', decimals, 64) + "%"
}

// JobProfileService manages the editable weighted-skill table stored per
// course. The whole dataset is overwritten on each save; derived columns are
// recomputed server-side so stale client values never persist.
type JobProfileService struct {
	repo   JobProfileRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewJobProfileService constructs a job profile service.
func NewJobProfileService(repo JobProfileRepository, cache *CacheService, logger *zap.Logger) *JobProfileService {
	return &JobProfileService{repo: repo, cache: cache, logger: logger}
}

// Get loads the stored dataset for a course, falling back to the built-in
// default rows when nothing was saved yet or the stored blob cannot be
// decoded.
func (s *JobProfileService) Get(ctx context.Context, courseID int64) (*dto.JobProfileResponse, error) {
	raw, found, err := s.repo.Get(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load job profile: %w", err)
	}

	rows := models.DefaultJobProfileRows()
	if found {
		var stored []models.JobProfileRow
		if err := json.Unmarshal([]byte(raw), &stored); err != nil || len(stored) == 0 {
			if s.logger != nil {
				s.logger.Warn("job profile blob malformed, using defaults",
					zap.Int64("course_id", courseID), zap.Error(err))
			}
		} else {
			rows = stored
		}
	}

	return buildJobProfileResponse(rows), nil
}

// Save replaces the stored dataset with the submitted rows, recomputing the
// derived columns before persisting.
func (s *JobProfileService) Save(ctx context.Context, courseID int64, req dto.JobProfileSaveRequest) (*dto.JobProfileResponse, error) {
	rows := make([]models.JobProfileRow, len(req.Rows))
	for i, input := range req.Rows {
		userGrade, userSkill := ComputeRow(input.Weight, input.System, input.Assignment, input.Instructor)
		rows[i] = models.JobProfileRow{
			Skill:      strings.TrimSpace(input.Skill),
			Weight:     normalizePercent(input.Weight),
			System:     normalizePercent(input.System),
			Assignment: normalizePercent(input.Assignment),
			Instructor: normalizePercent(input.Instructor),
			UserGrade:  FormatPercent(userGrade, 0),
			UserSkill:  FormatPercent(userSkill, 1),
		}
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode job profile: %w", err)
	}
	if err := s.repo.Save(ctx, courseID, string(payload)); err != nil {
		return nil, fmt.Errorf("save job profile: %w", err)
	}

	// Course settings changed, so cached analytics payloads for this course
	// must not outlive them.
	if err := s.cache.Invalidate(ctx, analyticsCachePattern(courseID)); err != nil && s.logger != nil {
		s.logger.Warn("invalidate analytics cache", zap.Int64("course_id", courseID), zap.Error(err))
	}

	return buildJobProfileResponse(rows), nil
}

// normalizePercent keeps the stored component strings uniform: absent values
// become "-" and present values keep their numeric text with a "%" suffix.
func normalizePercent(raw string) string {
	value, ok := ParsePercent(raw)
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(value, 'f', -1, 64) + "%"
}

func buildJobProfileResponse(rows []models.JobProfileRow) *dto.JobProfileResponse {
	var totalWeight, totalSkill float64
	for _, row := range rows {
		if value, ok := ParsePercent(row.Weight); ok {
			totalWeight += value
		}
		if value, ok := ParsePercent(row.UserSkill); ok {
			totalSkill += value
		}
	}
	return &dto.JobProfileResponse{
		Rows:           rows,
		TotalWeight:    strconv.FormatFloat(totalWeight, 'f', -1, 64) + "%",
		TotalUserSkill: FormatPercent(totalSkill, 1),
	}
}
