package types

import "atspro/internal/models"

// MatchResumeInput represents the input for matching a resume to a job
type MatchResumeInput struct {
	Resume         string   `json:"resume"`
	JobDescription string   `json:"job_description"`
	JobTitle       string   `json:"job_title,omitempty"`
	RequiredSkills []string `json:"required_skills,omitempty"` // Extra skills listed on the posting
}

// FitAssessment scores one dimension of a match
type FitAssessment struct {
	Score int    `json:"score"` // 0-100 score
	Notes string `json:"notes"`
}

// MatchResumeOutput represents the output from matching a resume
type MatchResumeOutput struct {
	MatchScore      float64               `json:"match_score"` // 0-100
	SkillMatches    []models.SkillMatch   `json:"skill_matches"`
	KeywordMatches  []models.KeywordMatch `json:"keyword_matches"`
	EducationMatch  FitAssessment         `json:"education_match"`
	ExperienceMatch FitAssessment         `json:"experience_match"`
	Strengths       []string              `json:"strengths"`
	Weaknesses      []string              `json:"weaknesses"`
	Summary         string                `json:"summary"`
	Recommendations string                `json:"recommendations"`
}

// SummarizeInterviewInput represents an interview transcript to summarise
type SummarizeInterviewInput struct {
	Transcript    string               `json:"transcript"`
	InterviewType models.InterviewType `json:"interview_type"`
	JobTitle      string               `json:"job_title,omitempty"`
}

// SummarizeInterviewOutput represents the structured interview summary
type SummarizeInterviewOutput struct {
	Summary              string   `json:"summary"`
	KeyStrengths         []string `json:"key_strengths"`
	AreasForImprovement  []string `json:"areas_for_improvement"`
	TechnicalScore       int      `json:"technical_score"`     // 1-10
	CommunicationScore   int      `json:"communication_score"` // 1-10
	CulturalFitScore     int      `json:"cultural_fit_score"`  // 1-10
	OverallRating        int      `json:"overall_rating"`      // 1-5
	RecommendedNextSteps string   `json:"recommended_next_steps"`
	BiasFlags            []string `json:"bias_flags"`
}

// SummarizeChatInput represents a recruiter/candidate chat transcript
type SummarizeChatInput struct {
	Transcript []string `json:"transcript"` // One line per message, "Speaker: text"
	JobTitle   string   `json:"job_title,omitempty"`
}

// SummarizeChatOutput represents what was learned from the chat
type SummarizeChatOutput struct {
	InterestLevel              models.InterestLevel     `json:"interest_level"`
	SalaryExpectations         models.SalaryExpectation `json:"salary_expectations"`
	Availability               models.Availability      `json:"availability"`
	WorkArrangementPreferences []string                 `json:"work_arrangement_preferences"`
	LocationPreferences        []string                 `json:"location_preferences"`
	NoticePeriod               string                   `json:"notice_period"`
	RedFlags                   []string                 `json:"red_flags"`
	PositiveIndicators         []string                 `json:"positive_indicators"`
	KeyConcerns                []string                 `json:"key_concerns"`
	ConfidenceScore            float64                  `json:"confidence_score"` // 0-1
	Recommendation             string                   `json:"recommendation"`
}

// DetectBiasInput represents recruiter-written content to screen
type DetectBiasInput struct {
	Content    string            `json:"content"`
	SourceType models.BiasSource `json:"source_type"`
}

// DetectBiasOutput represents the bias screening result
type DetectBiasOutput struct {
	SeverityLevel             models.SeverityLevel   `json:"severity_level"`
	FlaggedPhrases            []models.FlaggedPhrase `json:"flagged_phrases"`
	BiasCategories            []string               `json:"bias_categories"`
	SuggestedAlternatives     []string               `json:"suggested_alternatives"`
	Explanation               string                 `json:"explanation"`
	CorrectiveRecommendations string                 `json:"corrective_recommendations"`
}
