package formatters

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"atspro/internal/models"
	"atspro/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func ptr[T any](v T) *T { return &v }

func sampleAnalysis(t *testing.T) *models.ResumeAnalysis {
	t.Helper()
	edu, err := json.Marshal(types.FitAssessment{Score: 100, Notes: "Bachelor's degree found"})
	require.NoError(t, err)
	return &models.ResumeAnalysis{
		MatchScore: 84.5,
		SkillMatches: datatypes.JSONSlice[models.SkillMatch]{
			{Skill: "Go", Matched: true, Evidence: "Built Go services"},
			{Skill: "Kafka", Matched: false},
		},
		KeywordMatches:   datatypes.JSONSlice[models.KeywordMatch]{{Keyword: "services", Count: 3}},
		EducationMatch:   datatypes.JSON(edu),
		Strengths:        datatypes.JSONSlice[string]{"Strong Go background"},
		Weaknesses:       datatypes.JSONSlice[string]{"Missing skills: Kafka"},
		AISummary:        ptr("Good fit for Backend Engineer."),
		ProcessingTimeMS: 12,
	}
}

func TestFormatResumeAnalysis(t *testing.T) {
	r := sampleAnalysis(t)

	text, err := GlobalRegistry.Format(r, "text")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "=== RESUME MATCH ==="))
	assert.Contains(t, text, "Match Score: 84.5/100 (Good fit)")
	assert.Contains(t, text, "Education: 100/100 (Bachelor's degree found)")
	assert.Contains(t, text, `- Go: found ("Built Go services")`)
	assert.Contains(t, text, "- Kafka: missing")
	assert.Contains(t, text, "- services x3")

	md, err := GlobalRegistry.Format(*r, "markdown")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# Resume Match"))
	assert.Contains(t, md, "**Match Score:** 84.5/100")
	assert.Contains(t, md, "## Strengths")
}

func TestFormatJSONFallsBackToAny(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleAnalysis(t), "json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 84.5, decoded["match_score"])

	out, err = GlobalRegistry.Format(map[string]int{"a": 1}, "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"a": 1`)
}

func TestFormatUnknown(t *testing.T) {
	_, err := GlobalRegistry.Format(sampleAnalysis(t), "yaml")
	assert.Error(t, err)
	assert.False(t, GlobalRegistry.Supports("yaml"))
	assert.True(t, GlobalRegistry.Supports("markdown"))

	_, err = GlobalRegistry.Format(map[string]int{}, "text")
	assert.ErrorContains(t, err, "no formatter found")
}

func TestFormatInterviewSummary(t *testing.T) {
	r := &models.InterviewSummary{
		InterviewType:       models.InterviewTypeTechnical,
		InterviewDate:       time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		TechnicalScore:      ptr(8),
		CommunicationScore:  ptr(7),
		OverallRating:       ptr(4),
		AIGeneratedSummary:  ptr("Solid technical interview."),
		KeyStrengths:        datatypes.JSONSlice[string]{"System design"},
		AreasForImprovement: datatypes.JSONSlice[string]{"SQL tuning"},
		BiasFlags:           datatypes.JSONSlice[string]{"too old (age)"},
	}
	out, err := GlobalRegistry.Format(r, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Date: 2026-03-02")
	assert.Contains(t, out, "Technical: 8/10")
	assert.Contains(t, out, "Overall Rating: 4/5")
	assert.NotContains(t, out, "Cultural Fit", "unset scores are skipped")
	assert.Contains(t, out, "Bias Flags:\n- too old (age)")
}

func TestFormatChatAnalysis(t *testing.T) {
	level := models.InterestHigh
	r := &models.ChatAnalysis{
		InterestLevel:         &level,
		ConfidenceScore:       ptr(0.85),
		SalaryExpectations:    datatypes.NewJSONType(models.SalaryExpectation{Min: ptr(120000.0), Max: ptr(135000.0), Currency: "USD"}),
		ExtractedAvailability: datatypes.NewJSONType(models.Availability{StartDate: "early March"}),
		NoticePeriodDiscussed: ptr("2 weeks"),
		RedFlags:              datatypes.JSONSlice[string]{"Has a competing offer"},
	}
	out, err := GlobalRegistry.Format(r, "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "**Interest Level:** high")
	assert.Contains(t, out, "**Confidence:** 85%")
	assert.Contains(t, out, "**Salary Expectations:** 120000-135000 USD")
	assert.Contains(t, out, "**Availability:** early March")
	assert.Contains(t, out, "## Red Flags")
}

func TestFormatBiasDetection(t *testing.T) {
	r := models.BiasDetection{
		SeverityLevel: models.SeverityHigh,
		SourceType:    models.BiasSourceInterviewFeedback,
		FlaggedPhrases: datatypes.JSONSlice[models.FlaggedPhrase]{
			{Phrase: "too old", Category: "age", Suggestion: "Describe the skill gap instead"},
		},
		AIExplanation: ptr("Found 1 potentially biased phrase."),
		ReviewedByHR:  true,
		HRResponse:    ptr("Rewrote the feedback."),
	}
	out, err := GlobalRegistry.Format(r, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Severity: high")
	assert.Contains(t, out, "Source: interview feedback")
	assert.Contains(t, out, `- "too old" (age): Describe the skill gap instead`)
	assert.Contains(t, out, "HR Response:\nRewrote the feedback.")
}

func TestDerefRejectsWrongType(t *testing.T) {
	_, err := (&BiasDetectionFormatter{textStyle}).Format(models.ChatAnalysis{})
	assert.Error(t, err)
	_, err = (&BiasDetectionFormatter{textStyle}).Format((*models.BiasDetection)(nil))
	assert.Error(t, err)
}
