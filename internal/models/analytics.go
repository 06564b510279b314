package models

// FeedbackRichness summarises grader feedback volume for one assignment.
type FeedbackRichness struct {
	AvgLength float64 `json:"avg_length"`
	RichCount int     `json:"rich_count"`
}

// AssignmentMetrics aggregates submission and grading activity per assignment.
type AssignmentMetrics struct {
	Name                 string            `json:"name"`
	AvgGradePct          float64           `json:"avg_grade_pct"`
	OntimeSubmissionRate float64           `json:"ontime_submission_rate"`
	LateSubmissions      int               `json:"late_submissions"`
	SubmittedCount       int               `json:"submitted_count"`
	ResubmissionCount    int               `json:"resubmission_count,omitempty"`
	FeedbackRichness     *FeedbackRichness `json:"feedback_richness,omitempty"`
}

// H5PMetrics captures interactive H5P content engagement.
type H5PMetrics struct {
	Title               string  `json:"title"`
	InteractionCount    int     `json:"interaction_count"`
	AvgInteractionScore float64 `json:"avg_interaction_score"`
	LastInteraction     int64   `json:"last_interaction"`
}

// VideoMetrics captures video activity derived from the activity log.
type VideoMetrics struct {
	ViewCount      int     `json:"view_count"`
	CompletionRate float64 `json:"completion_rate"`
	LastView       int64   `json:"last_view"`
}

// SCORMMetrics captures SCORM package tracking data.
type SCORMMetrics struct {
	InteractionCount int     `json:"interaction_count"`
	AvgScore         float64 `json:"avg_score"`
	LastInteraction  int64   `json:"last_interaction"`
}

// InteractiveContentMetrics groups per-plugin interactive content data.
// Sub-maps stay nil when the backing plugin is not installed.
type InteractiveContentMetrics struct {
	H5P   map[int64]*H5PMetrics   `json:"h5p,omitempty"`
	Video map[int64]*VideoMetrics `json:"video,omitempty"`
	SCORM map[int64]*SCORMMetrics `json:"scorm,omitempty"`
}

// BigBlueButtonMetrics aggregates live session activity per BBB instance.
type BigBlueButtonMetrics struct {
	SessionsAttended int     `json:"sessions_attended"`
	TotalMinutes     int     `json:"total_minutes"`
	PunctualityRate  float64 `json:"punctuality_rate"`
	PollsAnswered    int     `json:"polls_answered"`
	HandsRaised      int     `json:"hands_raised"`
}

// ZoomMetrics aggregates live session activity per Zoom meeting.
type ZoomMetrics struct {
	SessionsAttended int     `json:"sessions_attended"`
	TotalMinutes     int     `json:"total_minutes"`
	PunctualityRate  float64 `json:"punctuality_rate"`
}

// LiveSessionMetrics groups per-plugin live session data.
type LiveSessionMetrics struct {
	BigBlueButton map[int64]*BigBlueButtonMetrics `json:"bigbluebutton,omitempty"`
	Zoom          map[int64]*ZoomMetrics          `json:"zoom,omitempty"`
}

// ForumMetrics aggregates posting and rating activity per forum.
type ForumMetrics struct {
	Name               string  `json:"name"`
	PostsCreated       int     `json:"posts_created"`
	RepliesMade        int     `json:"replies_made"`
	AvgResponseLatency float64 `json:"avg_response_latency"`
	PostsWithRatings   int     `json:"posts_with_ratings"`
	AvgPeerRating      float64 `json:"avg_peer_rating"`
	InstructorReplies  int     `json:"instructor_replies"`
}

// AttendanceMetrics is derived from completion tracking as an attendance
// proxy. LateCount and AttendanceStreak stay 0: the source schema has no
// per-session punch data to compute them from.
type AttendanceMetrics struct {
	ModuleName       string  `json:"module_name"`
	AttendanceRate   float64 `json:"attendance_rate"`
	LateCount        int     `json:"late_count"`
	AbsenceCount     int     `json:"absence_count"`
	AttendanceStreak int     `json:"attendance_streak"`
	LastAttendance   int64   `json:"last_attendance"`
}

// CompetencyMetrics captures framework ratings plus evidence counts.
type CompetencyMetrics struct {
	Shortname           string  `json:"shortname"`
	Description         string  `json:"description"`
	Rating              float64 `json:"rating"`
	ProficiencyAchieved bool    `json:"proficiency_achieved"`
	Status              int     `json:"status"`
	DateAchieved        int64   `json:"date_achieved"`
	LastUpdated         int64   `json:"last_updated"`
	EvidenceCount       int     `json:"evidence_count"`
	LastEvidence        int64   `json:"last_evidence"`
}

// CompetencyEvidence is the per-competency evidence overlay merged into an
// existing rating entry.
type CompetencyEvidence struct {
	UserID        int64 `db:"user_id"`
	CompetencyID  int64 `db:"competency_id"`
	EvidenceCount int   `db:"evidence_count"`
	LastEvidence  int64 `db:"last_evidence"`
}

// BadgeMetrics describes an earned badge.
type BadgeMetrics struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DateEarned  int64  `json:"date_earned"`
	UniqueHash  string `json:"unique_hash"`
}

// CertificateMetrics describes an issued certificate.
type CertificateMetrics struct {
	Name         string `json:"name"`
	DateAchieved int64  `json:"date_achieved"`
	Code         string `json:"code"`
}

// LearningPace summarises activity cadence from the activity log.
type LearningPace struct {
	AvgPaceHours float64 `json:"avg_pace_hours"`
	ActiveDays   int     `json:"active_days"`
}

// AcademicIntegrity summarises plagiarism scan results.
type AcademicIntegrity struct {
	AvgSimilarity      float64 `json:"avg_similarity"`
	SubmissionsChecked int     `json:"submissions_checked"`
}

// BehavioralMetrics holds scalar behavioural aggregates.
type BehavioralMetrics struct {
	DeadlineAdherence float64            `json:"deadline_adherence"`
	LearningPace      *LearningPace      `json:"learning_pace,omitempty"`
	AcademicIntegrity *AcademicIntegrity `json:"academic_integrity,omitempty"`
}

// TAEvaluationMetrics aggregates grader activity per graded module instance.
type TAEvaluationMetrics struct {
	Module            string  `json:"module"`
	AvgTARating       float64 `json:"avg_ta_rating"`
	FeedbackCount     int     `json:"feedback_count"`
	AvgFeedbackLength float64 `json:"avg_feedback_length"`
}

// AnalyticsRecord is the unified per-user, per-course aggregation of all
// metric domains. Nested maps are keyed by the owning entity's id.
type AnalyticsRecord struct {
	UserID             int64                          `json:"userid"`
	Assignments        map[int64]*AssignmentMetrics   `json:"assignments"`
	InteractiveContent InteractiveContentMetrics      `json:"interactive_content"`
	LiveSessions       LiveSessionMetrics             `json:"live_sessions"`
	Forums             map[int64]*ForumMetrics        `json:"forums"`
	Attendance         map[int64]*AttendanceMetrics   `json:"attendance"`
	Competencies       map[int64]*CompetencyMetrics   `json:"competencies"`
	Badges             map[int64]*BadgeMetrics        `json:"badges"`
	Certificates       map[int64]*CertificateMetrics  `json:"certificates"`
	Behavioral         BehavioralMetrics              `json:"behavioral"`
	TAEvaluation       map[int64]*TAEvaluationMetrics `json:"ta_evaluation"`
}

// NewAnalyticsRecord initialises an empty record so every requested user has
// one, regardless of how many adapters contribute entries.
func NewAnalyticsRecord(userID int64) *AnalyticsRecord {
	return &AnalyticsRecord{
		UserID:       userID,
		Assignments:  make(map[int64]*AssignmentMetrics),
		Forums:       make(map[int64]*ForumMetrics),
		Attendance:   make(map[int64]*AttendanceMetrics),
		Competencies: make(map[int64]*CompetencyMetrics),
		Badges:       make(map[int64]*BadgeMetrics),
		Certificates: make(map[int64]*CertificateMetrics),
		TAEvaluation: make(map[int64]*TAEvaluationMetrics),
	}
}
