package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-analytics-api/internal/dto"
	"github.com/noah-isme/course-analytics-api/internal/models"
	appErrors "github.com/noah-isme/course-analytics-api/pkg/errors"
)

// CourseRepository resolves courses and enrollment sets for the service layer.
type CourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	EnrolledUsers(ctx context.Context, courseID int64) ([]models.EnrolledUser, error)
}

// CapabilityRepository reports which optional plugin tables are installed.
type CapabilityRepository interface {
	ExistingTables(ctx context.Context, tables []string) (map[string]bool, error)
}

// AssignmentCollector collects per-assignment submission and grading metrics.
type AssignmentCollector interface {
	Collect(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.AssignmentMetrics, error)
}

// InteractiveContentCollector collects H5P, video and SCORM metrics.
type InteractiveContentCollector interface {
	CollectH5P(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.H5PMetrics, error)
	CollectVideo(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.VideoMetrics, error)
	CollectSCORM(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.SCORMMetrics, error)
}

// LiveSessionCollector collects BigBlueButton and Zoom metrics.
type LiveSessionCollector interface {
	CollectBigBlueButton(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.BigBlueButtonMetrics, error)
	CollectZoom(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.ZoomMetrics, error)
}

// ForumCollector collects per-forum posting metrics.
type ForumCollector interface {
	Collect(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.ForumMetrics, error)
}

// AttendanceCollector collects completion-derived attendance metrics.
type AttendanceCollector interface {
	Collect(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.AttendanceMetrics, error)
}

// CompetencyCollector collects competency ratings and evidence.
type CompetencyCollector interface {
	CollectRatings(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.CompetencyMetrics, error)
	CollectEvidence(ctx context.Context, courseID int64, userIDs []int64) ([]models.CompetencyEvidence, error)
}

// BadgeCollector collects earned badges and issued certificates.
type BadgeCollector interface {
	CollectBadges(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.BadgeMetrics, error)
	CollectCertificates(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.CertificateMetrics, error)
}

// BehaviorCollector collects scalar behavioural aggregates.
type BehaviorCollector interface {
	CollectDeadlineAdherence(ctx context.Context, courseID int64, userIDs []int64) (map[int64]float64, error)
	CollectLearningPace(ctx context.Context, courseID int64, userIDs []int64) (map[int64]*models.LearningPace, error)
	CollectAcademicIntegrity(ctx context.Context, courseID int64, userIDs []int64) (map[int64]*models.AcademicIntegrity, error)
}

// TAEvaluationCollector collects grader activity metrics.
type TAEvaluationCollector interface {
	Collect(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.TAEvaluationMetrics, error)
}

// adapter binds one metric domain to the optional plugin tables it needs.
// An adapter with no required tables always runs.
type adapter struct {
	name   string
	tables []string
	run    func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error
}

// AnalyticsService runs the aggregation pipeline: it fans course activity
// data out to the domain adapters and merges their partial results into one
// AnalyticsRecord per requested user.
type AnalyticsService struct {
	courses      CourseRepository
	capabilities CapabilityRepository
	assignments  AssignmentCollector
	interactive  InteractiveContentCollector
	liveSessions LiveSessionCollector
	forums       ForumCollector
	attendance   AttendanceCollector
	competencies CompetencyCollector
	badges       BadgeCollector
	behavior     BehaviorCollector
	taEvaluation TAEvaluationCollector

	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewAnalyticsService constructs the aggregation service.
func NewAnalyticsService(
	courses CourseRepository,
	capabilities CapabilityRepository,
	assignments AssignmentCollector,
	interactive InteractiveContentCollector,
	liveSessions LiveSessionCollector,
	forums ForumCollector,
	attendance AttendanceCollector,
	competencies CompetencyCollector,
	badges BadgeCollector,
	behavior BehaviorCollector,
	taEvaluation TAEvaluationCollector,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *AnalyticsService {
	return &AnalyticsService{
		courses:      courses,
		capabilities: capabilities,
		assignments:  assignments,
		interactive:  interactive,
		liveSessions: liveSessions,
		forums:       forums,
		attendance:   attendance,
		competencies: competencies,
		badges:       badges,
		behavior:     behavior,
		taEvaluation: taEvaluation,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		cacheTTL:     cacheTTL,
	}
}

// adapters returns the full registry in a fixed order. Order matters for the
// evidence overlay, which merges into competencies collected earlier in the
// same run.
func (s *AnalyticsService) adapters() []adapter {
	return []adapter{
		{
			name: "assignments",
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.assignments.Collect(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, metrics := range data {
					if record, ok := records[userID]; ok {
						record.Assignments = metrics
					}
				}
				return nil
			},
		},
		{
			name:   "h5p",
			tables: []string{"h5p_contents", "h5p_user_data"},
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.interactive.CollectH5P(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, metrics := range data {
					if record, ok := records[userID]; ok {
						record.InteractiveContent.H5P = metrics
					}
				}
				return nil
			},
		},
		{
			name: "video",
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.interactive.CollectVideo(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, metrics := range data {
					if record, ok := records[userID]; ok {
						record.InteractiveContent.Video = metrics
					}
				}
				return nil
			},
		},
		{
			name:   "scorm",
			tables: []string{"scorm_packages", "scorm_track"},
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.interactive.CollectSCORM(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, metrics := range data {
					if record, ok := records[userID]; ok {
						record.InteractiveContent.SCORM = metrics
					}
				}
				return nil
			},
		},
		{
			name:   "bigbluebutton",
			tables: []string{"bbb_instances", "bbb_logs"},
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.liveSessions.CollectBigBlueButton(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, metrics := range data {
					if record, ok := records[userID]; ok {
						record.LiveSessions.BigBlueButton = metrics
					}
				}
				return nil
			},
		},
		{
			name:   "zoom",
			tables: []string{"zoom_meetings", "zoom_participants"},
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.liveSessions.CollectZoom(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, metrics := range data {
					if record, ok := records[userID]; ok {
						record.LiveSessions.Zoom = metrics
					}
				}
				return nil
			},
		},
		{
			name: "forums",
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.forums.Collect(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, metrics := range data {
					if record, ok := records[userID]; ok {
						record.Forums = metrics
					}
				}
				return nil
			},
		},
		{
			name: "attendance",
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.attendance.Collect(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, metrics := range data {
					if record, ok := records[userID]; ok {
						record.Attendance = metrics
					}
				}
				return nil
			},
		},
		{
			name:   "competencies",
			tables: []string{"competencies", "competency_user_ratings"},
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.competencies.CollectRatings(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, metrics := range data {
					if record, ok := records[userID]; ok {
						record.Competencies = metrics
					}
				}
				return nil
			},
		},
		{
			name:   "competency_evidence",
			tables: []string{"competencies", "competency_evidence"},
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				evidence, err := s.competencies.CollectEvidence(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				// Evidence only annotates competencies the user already has
				// a rating for; stray evidence rows are dropped.
				for _, item := range evidence {
					record, ok := records[item.UserID]
					if !ok {
						continue
					}
					if base, ok := record.Competencies[item.CompetencyID]; ok {
						base.EvidenceCount = item.EvidenceCount
						base.LastEvidence = item.LastEvidence
					}
				}
				return nil
			},
		},
		{
			name:   "badges",
			tables: []string{"badges", "badge_issues"},
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.badges.CollectBadges(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, metrics := range data {
					if record, ok := records[userID]; ok {
						record.Badges = metrics
					}
				}
				return nil
			},
		},
		{
			name:   "certificates",
			tables: []string{"certificates", "certificate_issues"},
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.badges.CollectCertificates(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, metrics := range data {
					if record, ok := records[userID]; ok {
						record.Certificates = metrics
					}
				}
				return nil
			},
		},
		{
			name: "behavior",
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				adherence, err := s.behavior.CollectDeadlineAdherence(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, value := range adherence {
					if record, ok := records[userID]; ok {
						record.Behavioral.DeadlineAdherence = value
					}
				}
				pace, err := s.behavior.CollectLearningPace(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, value := range pace {
					if record, ok := records[userID]; ok {
						record.Behavioral.LearningPace = value
					}
				}
				return nil
			},
		},
		{
			name:   "academic_integrity",
			tables: []string{"plagiarism_scores"},
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.behavior.CollectAcademicIntegrity(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, value := range data {
					if record, ok := records[userID]; ok {
						record.Behavioral.AcademicIntegrity = value
					}
				}
				return nil
			},
		},
		{
			name: "ta_evaluation",
			run: func(ctx context.Context, courseID int64, userIDs []int64, records map[int64]*models.AnalyticsRecord) error {
				data, err := s.taEvaluation.Collect(ctx, courseID, userIDs)
				if err != nil {
					return err
				}
				for userID, metrics := range data {
					if record, ok := records[userID]; ok {
						record.TAEvaluation = metrics
					}
				}
				return nil
			},
		},
	}
}

// Aggregate produces one complete AnalyticsRecord per requested user. Every
// requested user gets a record even with zero activity; adapters whose plugin
// tables are absent are skipped without failing the run.
func (s *AnalyticsService) Aggregate(ctx context.Context, courseID int64, userIDs []int64) (map[int64]*models.AnalyticsRecord, error) {
	if len(userIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user id set must not be empty")
	}

	records := make(map[int64]*models.AnalyticsRecord, len(userIDs))
	for _, userID := range userIDs {
		records[userID] = models.NewAnalyticsRecord(userID)
	}

	registry := s.adapters()

	tableSet := make(map[string]struct{})
	for _, a := range registry {
		for _, table := range a.tables {
			tableSet[table] = struct{}{}
		}
	}
	tables := make([]string, 0, len(tableSet))
	for table := range tableSet {
		tables = append(tables, table)
	}
	existing, err := s.capabilities.ExistingTables(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("detect plugin tables: %w", err)
	}

	for _, a := range registry {
		if !tablesPresent(existing, a.tables) {
			s.metrics.RecordAdapterSkip(a.name)
			if s.logger != nil {
				s.logger.Debug("adapter skipped, plugin tables absent", zap.String("adapter", a.name))
			}
			continue
		}
		start := time.Now()
		if err := a.run(ctx, courseID, userIDs, records); err != nil {
			return nil, fmt.Errorf("adapter %s: %w", a.name, err)
		}
		s.metrics.ObserveAdapter(a.name, time.Since(start))
	}

	return records, nil
}

func tablesPresent(existing map[string]bool, tables []string) bool {
	for _, table := range tables {
		if !existing[table] {
			return false
		}
	}
	return true
}

// ComprehensiveAnalytics resolves the course and its enrollment, runs the
// aggregation and returns one entry per user in enrollment display order.
// When userID is non-nil the result is limited to that user, who must be
// actively enrolled. The bool reports whether the result came from cache.
func (s *AnalyticsService) ComprehensiveAnalytics(ctx context.Context, courseID int64, userID *int64) (*models.Course, []dto.UserAnalytics, bool, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, false, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, nil, false, fmt.Errorf("find course: %w", err)
	}

	enrolled, err := s.courses.EnrolledUsers(ctx, courseID)
	if err != nil {
		return nil, nil, false, err
	}

	if userID != nil {
		var match *models.EnrolledUser
		for i := range enrolled {
			if enrolled[i].ID == *userID {
				match = &enrolled[i]
				break
			}
		}
		if match == nil {
			return nil, nil, false, appErrors.ErrNotEnrolled
		}
		enrolled = []models.EnrolledUser{*match}
	}

	if len(enrolled) == 0 {
		return course, []dto.UserAnalytics{}, false, nil
	}

	cacheKey := analyticsCacheKey(courseID, userID)
	var cached []dto.UserAnalytics
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return course, cached, true, nil
	}

	userIDs := make([]int64, len(enrolled))
	for i, user := range enrolled {
		userIDs[i] = user.ID
	}

	records, err := s.Aggregate(ctx, courseID, userIDs)
	if err != nil {
		return nil, nil, false, err
	}

	result := make([]dto.UserAnalytics, len(enrolled))
	for i, user := range enrolled {
		result[i] = dto.UserAnalytics{
			UserID:    user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Analytics: records[user.ID],
		}
	}

	if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("cache analytics", zap.Error(err))
	}

	return course, result, false, nil
}

func analyticsCacheKey(courseID int64, userID *int64) string {
	if userID != nil {
		return fmt.Sprintf("analytics:course:%d:user:%d", courseID, *userID)
	}
	return fmt.Sprintf("analytics:course:%d", courseID)
}

// analyticsCachePattern matches every cached analytics payload for a course,
// the whole-course key and the per-user keys alike.
func analyticsCachePattern(courseID int64) string {
	return fmt.Sprintf("analytics:course:%d*", courseID)
}
