package models

import "slices"

// UserRole is the account type chosen at signup.
type UserRole string

const (
	RoleJobSeeker UserRole = "job_seeker"
	RoleHR        UserRole = "hr"
)

func (r UserRole) Valid() bool { return r == RoleJobSeeker || r == RoleHR }

// ApplicationStatus tracks a candidate through the hiring pipeline.
type ApplicationStatus string

const (
	StatusApplied     ApplicationStatus = "applied"
	StatusReviewing   ApplicationStatus = "reviewing"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusInterviewed ApplicationStatus = "interviewed"
	StatusSelected    ApplicationStatus = "selected"
	StatusRejected    ApplicationStatus = "rejected"
	StatusPlaced      ApplicationStatus = "placed"
	StatusWithdrawn   ApplicationStatus = "withdrawn"
)

var ApplicationStatuses = []ApplicationStatus{
	StatusApplied, StatusReviewing, StatusShortlisted, StatusInterviewed,
	StatusSelected, StatusRejected, StatusPlaced, StatusWithdrawn,
}

func (s ApplicationStatus) Valid() bool { return slices.Contains(ApplicationStatuses, s) }

// Withdrawable reports whether the candidate may still pull the application.
func (s ApplicationStatus) Withdrawable() bool {
	return s == StatusApplied || s == StatusReviewing || s == StatusShortlisted
}

// Hired counts towards the hire rate.
func (s ApplicationStatus) Hired() bool { return s == StatusSelected || s == StatusPlaced }

type BiasSource string

const (
	BiasSourceInterviewFeedback BiasSource = "interview_feedback"
	BiasSourceResumeReview      BiasSource = "resume_review"
	BiasSourceCandidateNotes    BiasSource = "candidate_notes"
	BiasSourceHiringDecision    BiasSource = "hiring_decision"
)

func (s BiasSource) Valid() bool {
	return slices.Contains([]BiasSource{
		BiasSourceInterviewFeedback, BiasSourceResumeReview, BiasSourceCandidateNotes, BiasSourceHiringDecision,
	}, s)
}

type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "entry"
	ExperienceMid       ExperienceLevel = "mid"
	ExperienceSenior    ExperienceLevel = "senior"
	ExperienceExecutive ExperienceLevel = "executive"
)

func (l ExperienceLevel) Valid() bool {
	return slices.Contains([]ExperienceLevel{ExperienceEntry, ExperienceMid, ExperienceSenior, ExperienceExecutive}, l)
}

type InterestLevel string

const (
	InterestVeryHigh InterestLevel = "very_high"
	InterestHigh     InterestLevel = "high"
	InterestMedium   InterestLevel = "medium"
	InterestLow      InterestLevel = "low"
	InterestVeryLow  InterestLevel = "very_low"
)

func (l InterestLevel) Valid() bool {
	return slices.Contains([]InterestLevel{InterestVeryHigh, InterestHigh, InterestMedium, InterestLow, InterestVeryLow}, l)
}

type InterviewMode string

const (
	ModePhone    InterviewMode = "phone"
	ModeVideo    InterviewMode = "video"
	ModeInPerson InterviewMode = "in_person"
)

func (m InterviewMode) Valid() bool {
	return m == ModePhone || m == ModeVideo || m == ModeInPerson
}

type InterviewRoundType string

const (
	RoundScreening  InterviewRoundType = "screening"
	RoundTechnical  InterviewRoundType = "technical"
	RoundBehavioral InterviewRoundType = "behavioral"
	RoundFinal      InterviewRoundType = "final"
	RoundPanel      InterviewRoundType = "panel"
)

func (r InterviewRoundType) Valid() bool {
	return slices.Contains([]InterviewRoundType{RoundScreening, RoundTechnical, RoundBehavioral, RoundFinal, RoundPanel}, r)
}

type InterviewStatus string

const (
	InterviewScheduled   InterviewStatus = "scheduled"
	InterviewInProgress  InterviewStatus = "in_progress"
	InterviewCompleted   InterviewStatus = "completed"
	InterviewCancelled   InterviewStatus = "cancelled"
	InterviewRescheduled InterviewStatus = "rescheduled"
)

func (s InterviewStatus) Valid() bool {
	return slices.Contains([]InterviewStatus{
		InterviewScheduled, InterviewInProgress, InterviewCompleted, InterviewCancelled, InterviewRescheduled,
	}, s)
}

// InterviewType classifies a summarised interview. It overlaps with modes and
// round types on purpose; the schema keeps them separate.
type InterviewType string

const (
	InterviewTypePhone      InterviewType = "phone"
	InterviewTypeVideo      InterviewType = "video"
	InterviewTypeInPerson   InterviewType = "in_person"
	InterviewTypeTechnical  InterviewType = "technical"
	InterviewTypeBehavioral InterviewType = "behavioral"
)

func (t InterviewType) Valid() bool {
	return slices.Contains([]InterviewType{
		InterviewTypePhone, InterviewTypeVideo, InterviewTypeInPerson, InterviewTypeTechnical, InterviewTypeBehavioral,
	}, t)
}

type JobType string

const (
	JobFullTime   JobType = "full_time"
	JobPartTime   JobType = "part_time"
	JobContract   JobType = "contract"
	JobInternship JobType = "internship"
)

func (t JobType) Valid() bool {
	return slices.Contains([]JobType{JobFullTime, JobPartTime, JobContract, JobInternship}, t)
}

type MessageType string

const (
	MessageApplicationUpdate MessageType = "application_update"
	MessageInterviewInvite   MessageType = "interview_invite"
	MessageGeneral           MessageType = "general"
	MessageAIInsight         MessageType = "ai_insight"
)

func (t MessageType) Valid() bool {
	return slices.Contains([]MessageType{MessageApplicationUpdate, MessageInterviewInvite, MessageGeneral, MessageAIInsight}, t)
}

type NotificationType string

const (
	NotifyApplication NotificationType = "application"
	NotifyInterview   NotificationType = "interview"
	NotifyJobUpdate   NotificationType = "job_update"
	NotifyAIAnalysis  NotificationType = "ai_analysis"
	NotifyBiasAlert   NotificationType = "bias_alert"
	NotifySystem      NotificationType = "system"
)

func (t NotificationType) Valid() bool {
	return slices.Contains([]NotificationType{
		NotifyApplication, NotifyInterview, NotifyJobUpdate, NotifyAIAnalysis, NotifyBiasAlert, NotifySystem,
	}, t)
}

type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityMedium PriorityLevel = "medium"
	PriorityHigh   PriorityLevel = "high"
	PriorityUrgent PriorityLevel = "urgent"
)

func (p PriorityLevel) Valid() bool {
	return slices.Contains([]PriorityLevel{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}, p)
}

type RecommendationType string

const (
	RecommendStrongHire   RecommendationType = "strong_hire"
	RecommendHire         RecommendationType = "hire"
	RecommendMaybe        RecommendationType = "maybe"
	RecommendNoHire       RecommendationType = "no_hire"
	RecommendStrongNoHire RecommendationType = "strong_no_hire"
)

func (r RecommendationType) Valid() bool {
	return slices.Contains([]RecommendationType{
		RecommendStrongHire, RecommendHire, RecommendMaybe, RecommendNoHire, RecommendStrongNoHire,
	}, r)
}

type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "low"
	SeverityMedium   SeverityLevel = "medium"
	SeverityHigh     SeverityLevel = "high"
	SeverityCritical SeverityLevel = "critical"
)

func (s SeverityLevel) Valid() bool {
	return slices.Contains([]SeverityLevel{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}, s)
}

// Rank orders severities so callers can compare them.
func (s SeverityLevel) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}
