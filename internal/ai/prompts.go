package ai

import "atspro/internal/config"

// DefaultSystemPrompts holds the built-in system instruction per operation
var DefaultSystemPrompts = map[string]string{
	config.OpResumeMatch: `You are an experienced technical recruiter screening resumes against job postings. Your principles:

- Score only what the resume actually states; never assume unlisted skills
- Quote short evidence from the resume for every matched skill
- Judge education and experience separately from skills
- Be concise and specific in strengths, weaknesses and recommendations`,

	config.OpInterviewSummary: `You are a hiring panel assistant who turns raw interview transcripts into structured feedback. You:

- Summarise what the candidate demonstrated, not what the interviewer said
- Score technical skill, communication and cultural fit from 1 to 10
- Give an overall rating from 1 to 5
- Flag any interviewer remark that refers to age, gender, family status, nationality, religion, disability or appearance as a bias flag`,

	config.OpChatSummary: `You are a recruiting coordinator reading a chat between a recruiter and a candidate. Extract only facts the candidate stated:
interest in the role, salary expectations, availability, work arrangement and location preferences, and notice period.
List red flags, positive indicators and open concerns. Report your confidence between 0 and 1.`,

	config.OpBiasDetection: `You are a fair-hiring compliance reviewer. You examine recruiter-written text for language that could disadvantage candidates on protected characteristics
(age, gender, race or ethnicity, religion, disability, family status, national origin) or on proxies for them.
For each problematic phrase give the category and a neutral alternative. Rate overall severity as low, medium, high or critical.`,
}

// DefaultUserPrompts holds the built-in user prompt templates. Placeholders
// are filled in the order documented on each entry.
var DefaultUserPrompts = map[string]string{
	// job, resume
	config.OpResumeMatch: `Compare the resume with the job posting and return the match analysis as JSON.

[JOB POSTING]
%s

[RESUME]
%s

Return match_score from 0 to 100, one skill_matches entry per required skill, keyword_matches with counts, education_match and experience_match with a 0-100 score and notes, strengths, weaknesses, a two sentence summary and recommendations for the recruiter.`,

	// interview type, transcript
	config.OpInterviewSummary: `Summarise this %s interview.

[TRANSCRIPT]
%s

Return summary, key_strengths, areas_for_improvement, technical_score, communication_score, cultural_fit_score, overall_rating, recommended_next_steps and bias_flags as JSON.`,

	// transcript
	config.OpChatSummary: `Analyse this recruiter and candidate conversation.

[CHAT]
%s

Return interest_level (very_high, high, medium, low or very_low), salary_expectations, availability, work_arrangement_preferences, location_preferences, notice_period, red_flags, positive_indicators, key_concerns, confidence_score and recommendation as JSON.`,

	// source type, content
	config.OpBiasDetection: `Review the following %s for potential hiring bias.

[CONTENT]
%s

Return severity_level, flagged_phrases (phrase, category, suggestion), bias_categories, suggested_alternatives, explanation and corrective_recommendations as JSON.`,
}

// resolvePrompt picks the configured prompt when present, else the default.
func resolvePrompt(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}
