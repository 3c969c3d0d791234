package server

import (
	"net/http"
	"strconv"
	"strings"

	"atspro/internal/ats"
	"atspro/internal/errors"
	"atspro/internal/models"
)

// listParam accepts repeated keys and comma separated values.
func listParam(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func floatParam(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, key+" must be a number.", err)
	}
	return &v, nil
}

func (s *Server) searchJobsHandler(w http.ResponseWriter, r *http.Request) {
	page := pageFrom(r)
	q := ats.JobSearch{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, t := range listParam(r, "job_type") {
		q.JobTypes = append(q.JobTypes, models.JobType(t))
	}
	for _, l := range listParam(r, "experience_level") {
		q.ExperienceLevels = append(q.ExperienceLevels, models.ExperienceLevel(l))
	}

	var err error
	if q.SalaryMin, err = floatParam(r, "salary_min"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if q.SalaryMax, err = floatParam(r, "salary_max"); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.ATS.SearchJobs(r.Context(), actorFrom(r), q)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) getJobHandler(w http.ResponseWriter, r *http.Request) {
	job, err := s.ATS.GetJob(r.Context(), actorFrom(r), r.PathValue("id"))
	s.respond(w, r, http.StatusOK, job, err)
}

func (s *Server) createJobHandler(w http.ResponseWriter, r *http.Request) {
	var req ats.CreateJobRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.ATS.CreateJob(r.Context(), actorFrom(r), req)
	s.respond(w, r, http.StatusCreated, job, err)
}

func (s *Server) jobStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req JobStatusRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.IsActive == nil {
		s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "is_active is required.", nil))
		return
	}
	job, err := s.ATS.UpdateJobStatus(r.Context(), actorFrom(r), r.PathValue("id"), *req.IsActive)
	s.respond(w, r, http.StatusOK, job, err)
}

func (s *Server) jobAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	days, err := s.ATS.JobAnalytics(r.Context(), actorFrom(r), r.PathValue("id"))
	s.respond(w, r, http.StatusOK, map[string]any{"analytics": days}, err)
}

func (s *Server) myJobsHandler(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.ATS.ListMyJobs(r.Context(), actorFrom(r), pageFrom(r))
	s.respond(w, r, http.StatusOK, map[string]any{"jobs": jobs}, err)
}

func (s *Server) applyHandler(w http.ResponseWriter, r *http.Request) {
	var req ats.ApplyRequest
	if r.ContentLength != 0 {
		if err := parseJSONRequest(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	app, err := s.ATS.ApplyToJob(r.Context(), actorFrom(r), r.PathValue("id"), req)
	s.respond(w, r, http.StatusCreated, app, err)
}

func (s *Server) saveJobHandler(w http.ResponseWriter, r *http.Request) {
	saved, err := s.ATS.SaveJob(r.Context(), actorFrom(r), r.PathValue("id"))
	s.respond(w, r, http.StatusCreated, saved, err)
}

func (s *Server) unsaveJobHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.ATS.UnsaveJob(r.Context(), actorFrom(r), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) savedJobsHandler(w http.ResponseWriter, r *http.Request) {
	saved, err := s.ATS.ListSavedJobs(r.Context(), actorFrom(r), pageFrom(r))
	s.respond(w, r, http.StatusOK, map[string]any{"saved_jobs": saved}, err)
}

func (s *Server) myApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	apps, err := s.ATS.ListMyApplications(r.Context(), actorFrom(r), pageFrom(r))
	s.respond(w, r, http.StatusOK, map[string]any{"applications": apps}, err)
}

func (s *Server) withdrawHandler(w http.ResponseWriter, r *http.Request) {
	app, err := s.ATS.WithdrawApplication(r.Context(), actorFrom(r), r.PathValue("id"))
	s.respond(w, r, http.StatusOK, app, err)
}
