package ai

import (
	"context"
	"testing"

	"atspro/internal/models"
	"atspro/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobPosting = `Senior Backend Engineer. We need 5+ years building services in Go with PostgreSQL and Kubernetes.
Experience with Kafka and AWS is a plus. Bachelor's degree in computer science.`

func TestLocalMatchResume(t *testing.T) {
	p := NewLocalProvider()
	ctx := context.Background()

	strong := `Backend engineer, 7 years. Built Go services on Kubernetes backed by PostgreSQL.
Operated Kafka pipelines on AWS. BSc Computer Science, bachelor's degree.`
	weak := `Frontend developer with 2 years of React and CSS experience.`

	good, usage, err := p.MatchResume(ctx, types.MatchResumeInput{Resume: strong, JobDescription: jobPosting, JobTitle: "Senior Backend Engineer"})
	require.NoError(t, err)
	assert.Nil(t, usage)
	poor, _, err := p.MatchResume(ctx, types.MatchResumeInput{Resume: weak, JobDescription: jobPosting})
	require.NoError(t, err)

	assert.Greater(t, good.MatchScore, poor.MatchScore)
	assert.GreaterOrEqual(t, good.MatchScore, 80.0)
	assert.LessOrEqual(t, good.MatchScore, 100.0)
	assert.GreaterOrEqual(t, poor.MatchScore, 0.0)

	skills := map[string]bool{}
	for _, m := range good.SkillMatches {
		skills[m.Skill] = m.Matched
		if m.Matched {
			assert.NotEmpty(t, m.Evidence, "matched skill %s carries evidence", m.Skill)
		}
	}
	assert.True(t, skills["Go"])
	assert.True(t, skills["Kubernetes"])
	assert.True(t, skills["PostgreSQL"])

	assert.Equal(t, 100, good.ExperienceMatch.Score)
	assert.Equal(t, 100, good.EducationMatch.Score)
	assert.Contains(t, good.Summary, "Senior Backend Engineer")
	assert.Contains(t, poor.Weaknesses[0], "Missing skills")

	again, _, err := p.MatchResume(ctx, types.MatchResumeInput{Resume: strong, JobDescription: jobPosting, JobTitle: "Senior Backend Engineer"})
	require.NoError(t, err)
	assert.Equal(t, good, again, "local matching is deterministic")
}

func TestLocalMatchRequiredSkills(t *testing.T) {
	out, _, err := NewLocalProvider().MatchResume(context.Background(), types.MatchResumeInput{
		Resume:         "Accountant fluent in SAP and Excel.",
		JobDescription: "Finance role.",
		RequiredSkills: []string{"SAP", "excel", " "},
	})
	require.NoError(t, err)
	require.Len(t, out.SkillMatches, 2)
	assert.Equal(t, "Excel", out.SkillMatches[0].Skill, "lexicon skills from the posting come first")
	assert.Equal(t, "SAP", out.SkillMatches[1].Skill)
	for _, m := range out.SkillMatches {
		assert.True(t, m.Matched, m.Skill)
	}
}

func TestMatchBand(t *testing.T) {
	assert.Equal(t, "Excellent fit", MatchBand(95))
	assert.Equal(t, "Excellent fit", MatchBand(90))
	assert.Equal(t, "Good fit", MatchBand(80))
	assert.Equal(t, "Needs review", MatchBand(79.9))
}

func TestLocalSummarizeInterview(t *testing.T) {
	transcript := `The candidate clearly explained how they designed and implemented a Go service on Kubernetes.
They collaborated with the team and mentored two juniors.
They struggled with the SQL indexing question and could not explain query plans.
Honestly she seems too old for a startup.`

	out, _, err := NewLocalProvider().SummarizeInterview(context.Background(), types.SummarizeInterviewInput{
		Transcript:    transcript,
		InterviewType: models.InterviewTypeTechnical,
	})
	require.NoError(t, err)

	for _, score := range []int{out.TechnicalScore, out.CommunicationScore, out.CulturalFitScore} {
		assert.GreaterOrEqual(t, score, 1)
		assert.LessOrEqual(t, score, 10)
	}
	assert.GreaterOrEqual(t, out.OverallRating, 1)
	assert.LessOrEqual(t, out.OverallRating, 5)
	assert.NotEmpty(t, out.KeyStrengths)
	assert.NotEmpty(t, out.AreasForImprovement)
	assert.Contains(t, out.AreasForImprovement[0], "struggled")
	require.NotEmpty(t, out.BiasFlags)
	assert.Contains(t, out.BiasFlags[0], "too old (age)")
	assert.Contains(t, out.Summary, "Technical interview")
}

func TestLocalSummarizeChat(t *testing.T) {
	chat := []string{
		"Recruiter: Thanks for joining. What are your salary expectations?",
		"Christopher: I'm really excited about the role. I'm looking for $120,000 to $135,000.",
		"Recruiter: When could you start?",
		"Christopher: I have a two weeks notice period, so I could start in early March.",
		"Christopher: I'd prefer hybrid, I'm based in Austin. I do have a competing offer though.",
	}
	out, _, err := NewLocalProvider().SummarizeChat(context.Background(), types.SummarizeChatInput{Transcript: chat})
	require.NoError(t, err)

	require.NotNil(t, out.SalaryExpectations.Min)
	assert.Equal(t, 120000.0, *out.SalaryExpectations.Min)
	assert.Equal(t, 135000.0, *out.SalaryExpectations.Max)
	assert.Equal(t, "USD", out.SalaryExpectations.Currency)
	assert.Equal(t, "2 weeks", out.NoticePeriod)
	assert.Equal(t, "early March", out.Availability.StartDate)
	assert.Equal(t, []string{"hybrid"}, out.WorkArrangementPreferences)
	assert.Equal(t, []string{"Austin"}, out.LocationPreferences)
	assert.Contains(t, out.RedFlags, "Has a competing offer")
	assert.Equal(t, models.InterestMedium, out.InterestLevel, "excitement offset by the competing offer")
	assert.Greater(t, out.ConfidenceScore, 0.5)
	assert.LessOrEqual(t, out.ConfidenceScore, 1.0)
	assert.Contains(t, out.Recommendation, "red flags")
}

func TestLocalDetectBias(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		severity   models.SeverityLevel
		categories []string
	}{
		{"clean", "Strong system design answers and good test coverage.", models.SeverityLow, nil},
		{"single mild", "Looking for a rockstar engineer.", models.SeverityMedium, []string{"gender"}},
		{"single protected", "She is pregnant, so timing may be hard.", models.SeverityHigh, []string{"family_status"}},
		{"critical", "Too old for this team, and has a heavy accent. Went to an ivy league school.",
			models.SeverityCritical, []string{"age", "national_origin", "education"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := NewLocalProvider().DetectBias(context.Background(), types.DetectBiasInput{
				Content:    tt.content,
				SourceType: models.BiasSourceInterviewFeedback,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.severity, out.SeverityLevel)
			assert.Equal(t, tt.categories, out.BiasCategories)
			assert.Len(t, out.FlaggedPhrases, len(tt.categories))
			if len(tt.categories) == 0 {
				assert.Equal(t, "No potentially biased language was found.", out.Explanation)
			} else {
				assert.Contains(t, out.Explanation, "interview feedback")
				assert.NotEmpty(t, out.SuggestedAlternatives)
				assert.NotEmpty(t, out.CorrectiveRecommendations)
			}
		})
	}
}

func TestScanBiasPrefersHeavierOverlaps(t *testing.T) {
	hits := scanBias("He is too young for this.")
	require.Len(t, hits, 1)
	assert.Equal(t, "too young", hits[0].Phrase)
	assert.Equal(t, 3, hits[0].weight)
}

func TestLocalProviderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewLocalProvider().DetectBias(ctx, types.DetectBiasInput{Content: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
