package server

import (
	"net/http"

	"atspro/internal/ats"
	"atspro/internal/models"
)

func (s *Server) jobApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	var status *models.ApplicationStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st := models.ApplicationStatus(v)
		status = &st
	}
	apps, err := s.ATS.ListJobApplications(r.Context(), actorFrom(r), r.PathValue("id"), status)
	s.respond(w, r, http.StatusOK, map[string]any{"applications": apps}, err)
}

func (s *Server) applicationStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req ats.StatusUpdate
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	app, err := s.ATS.UpdateApplicationStatus(r.Context(), actorFrom(r), r.PathValue("id"), req)
	s.respond(w, r, http.StatusOK, app, err)
}

func (s *Server) scheduleInterviewHandler(w http.ResponseWriter, r *http.Request) {
	var req ats.ScheduleRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	iv, err := s.ATS.ScheduleInterview(r.Context(), actorFrom(r), r.PathValue("id"), req)
	s.respond(w, r, http.StatusCreated, iv, err)
}

func (s *Server) interviewsHandler(w http.ResponseWriter, r *http.Request) {
	ivs, err := s.ATS.ListInterviews(r.Context(), actorFrom(r))
	s.respond(w, r, http.StatusOK, map[string]any{"interviews": ivs}, err)
}

func (s *Server) completeInterviewHandler(w http.ResponseWriter, r *http.Request) {
	var req ats.InterviewFeedback
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	iv, err := s.ATS.CompleteInterview(r.Context(), actorFrom(r), r.PathValue("id"), req)
	s.respond(w, r, http.StatusOK, iv, err)
}

func (s *Server) candidateProfileHandler(w http.ResponseWriter, r *http.Request) {
	view, err := s.ATS.ViewCandidateProfile(r.Context(), actorFrom(r), r.PathValue("userID"))
	s.respond(w, r, http.StatusOK, view, err)
}

// Dashboards send a caller of the other role to their own dashboard.

func (s *Server) hrDashboardHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor.Role != models.RoleHR {
		http.Redirect(w, r, "/api/v1/dashboard/jobseeker", http.StatusSeeOther)
		return
	}
	dash, err := s.ATS.HRDashboard(r.Context(), actor)
	s.respond(w, r, http.StatusOK, dash, err)
}

func (s *Server) seekerDashboardHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor.Role != models.RoleJobSeeker {
		http.Redirect(w, r, "/api/v1/dashboard/hr", http.StatusSeeOther)
		return
	}
	dash, err := s.ATS.SeekerDashboard(r.Context(), actor)
	s.respond(w, r, http.StatusOK, dash, err)
}
