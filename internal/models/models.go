package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base carries the UUID primary key shared by every table.
type Base struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`
}

func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// User is the login identity. Everything user-facing hangs off Profile.
type User struct {
	Base
	Email         string    `gorm:"type:varchar(320);uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	FullName      string    `gorm:"not null" json:"full_name"`
	Role          UserRole  `gorm:"type:varchar(16);not null" json:"role"`
	GoogleSubject *string   `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Profile struct {
	Base
	UserID            string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	FirstName         string     `gorm:"not null" json:"first_name"`
	LastName          string     `gorm:"not null" json:"last_name"`
	Role              UserRole   `gorm:"type:varchar(16);not null" json:"role"`
	Phone             *string    `json:"phone"`
	ProfilePictureURL *string    `json:"profile_picture_url"`
	IsActive          bool       `gorm:"not null" json:"is_active"`
	LastLogin         *time.Time `json:"last_login"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// FullName joins first and last name the way they were entered at signup.
func (p Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

type HRProfile struct {
	Base
	UserID               string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	CompanyName          string    `gorm:"not null" json:"company_name"`
	CompanyDescription   *string   `json:"company_description"`
	CompanyLogoURL       *string   `json:"company_logo_url"`
	CompanySize          *string   `json:"company_size"`
	CompanyWebsite       *string   `json:"company_website"`
	Department           *string   `json:"department"`
	HiringAuthorityLevel *string   `json:"hiring_authority_level"`
	Industry             *string   `json:"industry"`
	Location             *string   `json:"location"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (HRProfile) TableName() string { return "hr_profiles" }

type JobSeeker struct {
	Base
	UserID                 string                      `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	ApplicationPreferences datatypes.JSON              `json:"application_preferences"`
	Availability           *string                     `json:"availability"`
	Bio                    *string                     `json:"bio"`
	ChatTranscript         datatypes.JSON              `json:"chat_transcript"`
	CurrentSalary          *float64                    `json:"current_salary"`
	Education              datatypes.JSON              `json:"education"`
	ExpectedSalary         *float64                    `json:"expected_salary"`
	ExperienceYears        *int                        `json:"experience_years"`
	LinkedinURL            *string                     `json:"linkedin_url"`
	Location               *string                     `json:"location"`
	NoticePeriod           *string                     `json:"notice_period"`
	PortfolioURL           *string                     `json:"portfolio_url"`
	PreferredJobType       *JobType                    `gorm:"type:varchar(16)" json:"preferred_job_type"`
	ResumeURL              *string                     `json:"resume_url"`
	Skills                 datatypes.JSONSlice[string] `json:"skills"`
	CreatedAt              time.Time                   `json:"created_at"`
	UpdatedAt              time.Time                   `json:"updated_at"`
}

type JobPosting struct {
	Base
	Title               string          `gorm:"not null" json:"title"`
	CompanyName         string          `gorm:"not null;index" json:"company_name"`
	Description         string          `gorm:"not null" json:"description"`
	Requirements        *string         `json:"requirements"`
	Responsibilities    *string         `json:"responsibilities"`
	Benefits            *string         `json:"benefits"`
	Location            *string         `json:"location"`
	SalaryMin           *float64        `json:"salary_min"`
	SalaryMax           *float64        `json:"salary_max"`
	JobType             JobType         `gorm:"type:varchar(16);not null" json:"job_type"`
	ExperienceLevel     ExperienceLevel `gorm:"type:varchar(16);not null" json:"experience_level"`
	RemoteAllowed       bool            `json:"remote_allowed"`
	ApplicationDeadline *time.Time      `json:"application_deadline"`
	CreatedBy           string          `gorm:"type:varchar(36);not null;index" json:"created_by"`
	IsActive            bool            `gorm:"index" json:"is_active"`
	ApplicationCount    int             `json:"application_count"`
	ViewsCount          int             `json:"views_count"`
	PostedAt            time.Time       `gorm:"index" json:"posted_at"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Candidate is one application of a job seeker to a job posting.
type Candidate struct {
	Base
	CandidateID        string            `gorm:"type:varchar(36);not null;uniqueIndex:idx_candidate_job" json:"candidate_id"`
	JobID              string            `gorm:"type:varchar(36);not null;uniqueIndex:idx_candidate_job;index" json:"job_id"`
	ResumeURL          string            `gorm:"not null" json:"resume_url"`
	CoverLetter        *string           `json:"cover_letter"`
	Status             ApplicationStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	AppliedAt          time.Time         `json:"applied_at"`
	StatusUpdatedAt    *time.Time        `json:"status_updated_at"`
	StatusUpdatedBy    *string           `gorm:"type:varchar(36)" json:"status_updated_by"`
	HRNotes            *string           `json:"hr_notes"`
	Rating             *int              `json:"rating"`
	InterviewScheduled bool              `json:"interview_scheduled"`
	FinalSalaryOffered *float64          `json:"final_salary_offered"`
	PlacementDate      *time.Time        `json:"placement_date"`
	ApplicationAnswers datatypes.JSON    `json:"application_answers"`

	Job *JobPosting `gorm:"foreignKey:JobID" json:"job,omitempty"`
}

type SavedJob struct {
	Base
	UserID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_saved_user_job" json:"user_id"`
	JobID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_saved_user_job" json:"job_id"`
	SavedAt time.Time `json:"saved_at"`

	Job *JobPosting `gorm:"foreignKey:JobID" json:"job,omitempty"`
}

// Interview belongs to an application; the column keeps its historical name
// candidate_id.
type Interview struct {
	Base
	ApplicationID      string              `gorm:"column:candidate_id;type:varchar(36);not null;index" json:"candidate_id"`
	InterviewerID      string              `gorm:"type:varchar(36);not null;index" json:"interviewer_id"`
	ScheduledAt        time.Time           `gorm:"not null" json:"scheduled_at"`
	DurationMinutes    int                 `json:"duration_minutes"`
	InterviewMode      InterviewMode       `gorm:"type:varchar(16);not null" json:"interview_mode"`
	InterviewType      InterviewRoundType  `gorm:"type:varchar(16);not null" json:"interview_type"`
	InterviewRound     int                 `json:"interview_round"`
	Status             InterviewStatus     `gorm:"type:varchar(16);not null" json:"status"`
	MeetingLink        *string             `json:"meeting_link"`
	Location           *string             `json:"location"`
	Agenda             *string             `json:"agenda"`
	Recommendation     *RecommendationType `gorm:"type:varchar(16)" json:"recommendation"`
	OverallRating      *int                `json:"overall_rating"`
	RawFeedback        *string             `json:"raw_feedback"`
	StructuredFeedback datatypes.JSON      `json:"structured_feedback"`
	NextSteps          *string             `json:"next_steps"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`

	Application *Candidate `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
}

type Message struct {
	Base
	SenderID    string         `gorm:"type:varchar(36);not null;index" json:"sender_id"`
	RecipientID string         `gorm:"type:varchar(36);not null;index" json:"recipient_id"`
	CandidateID *string        `gorm:"type:varchar(36)" json:"candidate_id"`
	Subject     *string        `json:"subject"`
	MessageBody string         `gorm:"not null" json:"message_body"`
	MessageType MessageType    `gorm:"type:varchar(24)" json:"message_type"`
	Attachments datatypes.JSON `json:"attachments"`
	IsRead      bool           `json:"is_read"`
	ReadAt      *time.Time     `json:"read_at"`
	SentAt      time.Time      `gorm:"index" json:"sent_at"`
}

type Notification struct {
	Base
	UserID            string           `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Title             string           `gorm:"not null" json:"title"`
	Message           string           `gorm:"not null" json:"message"`
	Type              NotificationType `gorm:"type:varchar(16);not null" json:"type"`
	Priority          PriorityLevel    `gorm:"type:varchar(8)" json:"priority"`
	IsRead            bool             `json:"is_read"`
	ActionURL         *string          `json:"action_url"`
	RelatedEntityID   *string          `gorm:"type:varchar(36)" json:"related_entity_id"`
	RelatedEntityType *string          `json:"related_entity_type"`
	ExpiresAt         *time.Time       `json:"expires_at"`
	CreatedAt         time.Time        `gorm:"index" json:"created_at"`
}

type ActivityLog struct {
	Base
	UserID     string         `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Action     string         `gorm:"not null;index" json:"action"`
	EntityType *string        `json:"entity_type"`
	EntityID   *string        `gorm:"type:varchar(36);index" json:"entity_id"`
	IPAddress  *string        `json:"ip_address"`
	UserAgent  *string        `json:"user_agent"`
	Metadata   datatypes.JSON `json:"metadata"`
	SessionID  *string        `json:"session_id"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (ActivityLog) TableName() string { return "user_activity_logs" }

// JobAnalytics is one row per job per calendar day (Date is YYYY-MM-DD).
type JobAnalytics struct {
	Base
	JobID             string   `gorm:"type:varchar(36);not null;uniqueIndex:idx_job_analytics_day" json:"job_id"`
	Date              string   `gorm:"type:varchar(10);not null;uniqueIndex:idx_job_analytics_day" json:"date"`
	ViewsCount        int      `json:"views_count"`
	ApplicationsCount int      `json:"applications_count"`
	SavesCount        int      `json:"saves_count"`
	ShareCount        int      `json:"share_count"`
	AvgTimeOnPage     *float64 `json:"avg_time_on_page"`
	BounceRate        *float64 `json:"bounce_rate"`
	ConversionRate    *float64 `json:"conversion_rate"`
}

func (JobAnalytics) TableName() string { return "job_analytics" }

type RecruitmentMetric struct {
	Base
	HRUserID              string   `gorm:"type:varchar(36);not null;uniqueIndex:idx_recruitment_day" json:"hr_user_id"`
	MetricDate            string   `gorm:"type:varchar(10);not null;uniqueIndex:idx_recruitment_day" json:"metric_date"`
	JobID                 *string  `gorm:"type:varchar(36)" json:"job_id"`
	TotalApplications     int      `json:"total_applications"`
	ApplicationsReviewed  int      `json:"applications_reviewed"`
	CandidatesShortlisted int      `json:"candidates_shortlisted"`
	InterviewsConducted   int      `json:"interviews_conducted"`
	OffersMade            int      `json:"offers_made"`
	PlacementsCompleted   int      `json:"placements_completed"`
	AvgTimeToHire         *float64 `json:"avg_time_to_hire"`
	CostPerHire           *float64 `json:"cost_per_hire"`
}

// SkillMatch reports whether a required skill was found in a resume.
type SkillMatch struct {
	Skill    string `json:"skill"`
	Matched  bool   `json:"matched"`
	Evidence string `json:"evidence,omitempty"`
}

// KeywordMatch counts occurrences of a job keyword in a resume.
type KeywordMatch struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

type ResumeAnalysis struct {
	Base
	RequestedBy      string                            `gorm:"type:varchar(36);not null;index" json:"requested_by"`
	CandidateID      *string                           `gorm:"type:varchar(36);index" json:"candidate_id"`
	JobID            *string                           `gorm:"type:varchar(36);index" json:"job_id"`
	ResumeURL        string                            `json:"resume_url"`
	JobDescription   string                            `gorm:"not null" json:"job_description"`
	MatchScore       float64                           `json:"match_score"`
	SkillMatches     datatypes.JSONSlice[SkillMatch]   `json:"skill_matches"`
	KeywordMatches   datatypes.JSONSlice[KeywordMatch] `json:"keyword_matches"`
	EducationMatch   datatypes.JSON                    `json:"education_match"`
	ExperienceMatch  datatypes.JSON                    `json:"experience_match"`
	Strengths        datatypes.JSONSlice[string]       `json:"strengths"`
	Weaknesses       datatypes.JSONSlice[string]       `json:"weaknesses"`
	AISummary        *string                           `json:"ai_summary"`
	Recommendations  *string                           `json:"recommendations"`
	ProcessingTimeMS int64                             `json:"processing_time_ms"`
	ProcessedAt      time.Time                         `json:"processed_at"`
}

func (ResumeAnalysis) TableName() string { return "ai_resume_analysis" }

type InterviewSummary struct {
	Base
	CandidateID          string                      `gorm:"type:varchar(36);not null;index" json:"candidate_id"`
	InterviewerID        string                      `gorm:"type:varchar(36);not null" json:"interviewer_id"`
	InterviewID          *string                     `gorm:"type:varchar(36)" json:"interview_id"`
	InterviewDate        time.Time                   `json:"interview_date"`
	InterviewType        InterviewType               `gorm:"type:varchar(16);not null" json:"interview_type"`
	AudioTranscript      *string                     `json:"audio_transcript"`
	RawFeedback          *string                     `json:"raw_feedback"`
	AIGeneratedSummary   *string                     `json:"ai_generated_summary"`
	KeyStrengths         datatypes.JSONSlice[string] `json:"key_strengths"`
	AreasForImprovement  datatypes.JSONSlice[string] `json:"areas_for_improvement"`
	TechnicalScore       *int                        `json:"technical_score"`
	CommunicationScore   *int                        `json:"communication_score"`
	CulturalFitScore     *int                        `json:"cultural_fit_score"`
	OverallRating        *int                        `json:"overall_rating"`
	RecommendedNextSteps *string                     `json:"recommended_next_steps"`
	BiasFlags            datatypes.JSONSlice[string] `json:"bias_flags"`
	ProcessedAt          time.Time                   `json:"processed_at"`
}

func (InterviewSummary) TableName() string { return "ai_interview_summaries" }

// SalaryExpectation is what a candidate said about pay during a chat.
type SalaryExpectation struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// Availability is when a candidate can start, as extracted from a chat.
type Availability struct {
	StartDate string `json:"start_date,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type ChatAnalysis struct {
	Base
	CandidateID                string                                `gorm:"type:varchar(36);not null;index" json:"candidate_id"`
	JobID                      string                                `gorm:"type:varchar(36);not null" json:"job_id"`
	HRUserID                   string                                `gorm:"type:varchar(36);not null" json:"hr_user_id"`
	ChatTranscript             datatypes.JSONSlice[string]           `json:"chat_transcript"`
	InterestLevel              *InterestLevel                        `gorm:"type:varchar(16)" json:"interest_level"`
	SalaryExpectations         datatypes.JSONType[SalaryExpectation] `json:"salary_expectations"`
	ExtractedAvailability      datatypes.JSONType[Availability]      `json:"extracted_availability"`
	WorkArrangementPreferences datatypes.JSONSlice[string]           `json:"work_arrangement_preferences"`
	LocationPreferences        datatypes.JSONSlice[string]           `json:"location_preferences"`
	NoticePeriodDiscussed      *string                               `json:"notice_period_discussed"`
	RedFlags                   datatypes.JSONSlice[string]           `json:"red_flags"`
	PositiveIndicators         datatypes.JSONSlice[string]           `json:"positive_indicators"`
	KeyConcerns                datatypes.JSONSlice[string]           `json:"key_concerns"`
	ConfidenceScore            *float64                              `json:"confidence_score"`
	AIRecommendation           *string                               `json:"ai_recommendation"`
	ProcessedAt                time.Time                             `json:"processed_at"`
}

func (ChatAnalysis) TableName() string { return "ai_chat_analysis" }

// FlaggedPhrase is a span of text the bias detector objected to.
type FlaggedPhrase struct {
	Phrase     string `json:"phrase"`
	Category   string `json:"category"`
	Suggestion string `json:"suggestion,omitempty"`
}

type BiasDetection struct {
	Base
	CandidateID               string                             `gorm:"type:varchar(36);not null;index" json:"candidate_id"`
	HRUserID                  string                             `gorm:"type:varchar(36);not null;index" json:"hr_user_id"`
	SourceType                BiasSource                         `gorm:"type:varchar(24);not null" json:"source_type"`
	SourceID                  string                             `gorm:"type:varchar(36);not null" json:"source_id"`
	OriginalContent           string                             `gorm:"not null" json:"original_content"`
	SeverityLevel             SeverityLevel                      `gorm:"type:varchar(16);not null" json:"severity_level"`
	FlaggedPhrases            datatypes.JSONSlice[FlaggedPhrase] `json:"flagged_phrases"`
	BiasCategories            datatypes.JSONSlice[string]        `json:"bias_categories"`
	BiasFlags                 datatypes.JSONSlice[string]        `json:"bias_flags"`
	SuggestedAlternatives     datatypes.JSONSlice[string]        `json:"suggested_alternatives"`
	AIExplanation             *string                            `json:"ai_explanation"`
	CorrectiveRecommendations *string                            `json:"corrective_recommendations"`
	ReviewedByHR              bool                               `json:"reviewed_by_hr"`
	HRResponse                *string                            `json:"hr_response"`
	DetectedAt                time.Time                          `json:"detected_at"`
}

func (BiasDetection) TableName() string { return "ai_bias_detection" }

// All lists every table model in migration order.
func All() []any {
	return []any{
		&User{}, &Profile{}, &HRProfile{}, &JobSeeker{},
		&JobPosting{}, &Candidate{}, &SavedJob{}, &Interview{},
		&Message{}, &Notification{}, &ActivityLog{},
		&JobAnalytics{}, &RecruitmentMetric{},
		&ResumeAnalysis{}, &InterviewSummary{}, &ChatAnalysis{}, &BiasDetection{},
	}
}

// StringPtr returns nil for empty strings so optional columns stay NULL.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
