package ai

import (
	"atspro/internal/types"

	"google.golang.org/genai"
)

func stringArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

func fitSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score": {Type: genai.TypeInteger},
			"notes": {Type: genai.TypeString},
		},
		Required: []string{"score", "notes"},
	}
}

func jsonConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
}

// buildMatchSchema creates the schema for resume match responses
func buildMatchSchema() *genai.GenerateContentConfig {
	return jsonConfig(&genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"match_score": {Type: genai.TypeNumber},
			"skill_matches": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"skill":    {Type: genai.TypeString},
						"matched":  {Type: genai.TypeBoolean},
						"evidence": {Type: genai.TypeString},
					},
					Required: []string{"skill", "matched"},
				},
			},
			"keyword_matches": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"keyword": {Type: genai.TypeString},
						"count":   {Type: genai.TypeInteger},
					},
					Required: []string{"keyword", "count"},
				},
			},
			"education_match":  fitSchema(),
			"experience_match": fitSchema(),
			"strengths":        stringArray(),
			"weaknesses":       stringArray(),
			"summary":          {Type: genai.TypeString},
			"recommendations":  {Type: genai.TypeString},
		},
		Required: []string{"match_score", "skill_matches", "keyword_matches", "education_match",
			"experience_match", "strengths", "weaknesses", "summary", "recommendations"},
	})
}

// buildInterviewSchema creates the schema for interview summaries
func buildInterviewSchema() *genai.GenerateContentConfig {
	return jsonConfig(&genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary":                {Type: genai.TypeString},
			"key_strengths":          stringArray(),
			"areas_for_improvement":  stringArray(),
			"technical_score":        {Type: genai.TypeInteger},
			"communication_score":    {Type: genai.TypeInteger},
			"cultural_fit_score":     {Type: genai.TypeInteger},
			"overall_rating":         {Type: genai.TypeInteger},
			"recommended_next_steps": {Type: genai.TypeString},
			"bias_flags":             stringArray(),
		},
		Required: []string{"summary", "key_strengths", "areas_for_improvement", "technical_score",
			"communication_score", "cultural_fit_score", "overall_rating", "recommended_next_steps", "bias_flags"},
	})
}

// buildChatSchema creates the schema for chat analyses
func buildChatSchema() *genai.GenerateContentConfig {
	return jsonConfig(&genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"interest_level": {
				Type: genai.TypeString,
				Enum: []string{"very_high", "high", "medium", "low", "very_low"},
			},
			"salary_expectations": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"min":      {Type: genai.TypeNumber},
					"max":      {Type: genai.TypeNumber},
					"currency": {Type: genai.TypeString},
					"notes":    {Type: genai.TypeString},
				},
			},
			"availability": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString},
					"notes":      {Type: genai.TypeString},
				},
			},
			"work_arrangement_preferences": stringArray(),
			"location_preferences":         stringArray(),
			"notice_period":                {Type: genai.TypeString},
			"red_flags":                    stringArray(),
			"positive_indicators":          stringArray(),
			"key_concerns":                 stringArray(),
			"confidence_score":             {Type: genai.TypeNumber},
			"recommendation":               {Type: genai.TypeString},
		},
		Required: []string{"interest_level", "red_flags", "positive_indicators", "key_concerns",
			"confidence_score", "recommendation"},
	})
}

// buildBiasSchema creates the schema for bias screening
func buildBiasSchema() *genai.GenerateContentConfig {
	return jsonConfig(&genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"severity_level": {
				Type: genai.TypeString,
				Enum: []string{"low", "medium", "high", "critical"},
			},
			"flagged_phrases": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"phrase":     {Type: genai.TypeString},
						"category":   {Type: genai.TypeString},
						"suggestion": {Type: genai.TypeString},
					},
					Required: []string{"phrase", "category"},
				},
			},
			"bias_categories":            stringArray(),
			"suggested_alternatives":     stringArray(),
			"explanation":                {Type: genai.TypeString},
			"corrective_recommendations": {Type: genai.TypeString},
		},
		Required: []string{"severity_level", "flagged_phrases", "bias_categories", "suggested_alternatives",
			"explanation", "corrective_recommendations"},
	})
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampInterviewScores(out *types.SummarizeInterviewOutput) {
	out.TechnicalScore = clampInt(out.TechnicalScore, 1, 10)
	out.CommunicationScore = clampInt(out.CommunicationScore, 1, 10)
	out.CulturalFitScore = clampInt(out.CulturalFitScore, 1, 10)
	out.OverallRating = clampInt(out.OverallRating, 1, 5)
}
