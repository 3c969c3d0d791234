package server

import (
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"atspro/internal/ats"
	"atspro/internal/errors"
)

// multipartMemory caps what ParseMultipartForm keeps in memory.
const multipartMemory = 10 << 20

// chatSummaryBody also accepts the transcript as one block of text.
type chatSummaryBody struct {
	ats.ChatSummaryRequest
	TranscriptText string `json:"transcript_text"`
}

func (s *Server) toolsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": ats.FilteredTools(actorFrom(r))})
}

// resumeMatcherHandler takes either JSON or a multipart form with the resume
// uploaded as the "resume" file field.
func (s *Server) resumeMatcherHandler(w http.ResponseWriter, r *http.Request) {
	var (
		req ats.MatchRequest
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		req, err = parseMatchForm(r)
	} else {
		err = parseJSONRequest(r, &req)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.ATS.MatchResume(r.Context(), actorFrom(r), req)
	s.respond(w, r, http.StatusOK, res, err)
}

func parseMatchForm(r *http.Request) (ats.MatchRequest, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return ats.MatchRequest{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Could not read the uploaded form.", err)
	}
	req := ats.MatchRequest{
		JobID:          r.FormValue("job_id"),
		JobDescription: r.FormValue("job_description"),
		ResumeText:     r.FormValue("resume_text"),
		ResumeURL:      r.FormValue("resume_url"),
		CandidateID:    r.FormValue("candidate_id"),
	}

	file, header, err := r.FormFile("resume")
	switch {
	case stderrors.Is(err, http.ErrMissingFile):
		return req, nil
	case err != nil:
		return req, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Could not read the uploaded resume.", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return req, errors.NewIOError(errors.ErrCodeFileNotReadable, "Could not read the uploaded resume.", err)
	}
	req.ResumeFile = data
	req.ResumeFileName = header.Filename
	return req, nil
}

func (s *Server) interviewSummaryHandler(w http.ResponseWriter, r *http.Request) {
	var req ats.InterviewSummaryRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.ATS.SummarizeInterview(r.Context(), actorFrom(r), req)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) chatSummarizerHandler(w http.ResponseWriter, r *http.Request) {
	var body chatSummaryBody
	if err := parseJSONRequest(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req := body.ChatSummaryRequest
	if len(req.Transcript) == 0 && body.TranscriptText != "" {
		req.Transcript = ats.SplitTranscript(body.TranscriptText)
	}
	res, err := s.ATS.SummarizeChat(r.Context(), actorFrom(r), req)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) biasDetectorHandler(w http.ResponseWriter, r *http.Request) {
	var req ats.BiasRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.ATS.DetectBias(r.Context(), actorFrom(r), req)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) biasReviewHandler(w http.ResponseWriter, r *http.Request) {
	var req BiasReviewRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.ATS.ReviewBias(r.Context(), actorFrom(r), r.PathValue("id"), req.HRResponse)
	s.respond(w, r, http.StatusOK, res, err)
}

var exportExtensions = map[string]string{
	"json":     "json",
	"text":     "txt",
	"markdown": "md",
}

// exportHandler renders a stored result; ?download=true adds an attachment
// filename.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	kind, id := r.PathValue("kind"), r.PathValue("id")
	format := strings.ToLower(r.URL.Query().Get("format"))

	export, err := s.ATS.ExportResult(r.Context(), actorFrom(r), kind, id, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	if queryBool(r, "download") {
		if format == "" {
			format = "json"
		}
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s-%s.%s", kind, id, exportExtensions[format])))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, export.Content); err != nil {
		s.Logger.LogError(err, "Failed to write export", "kind", kind, "id", id)
	}
}
