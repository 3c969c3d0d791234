package server

import (
	"net/http"

	"atspro/internal/ats"
)

func (s *Server) inboxHandler(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.ATS.Inbox(r.Context(), actorFrom(r), pageFrom(r))
	s.respond(w, r, http.StatusOK, map[string]any{"messages": msgs}, err)
}

func (s *Server) sendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req ats.MessageRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	msg, err := s.ATS.SendMessage(r.Context(), actorFrom(r), req)
	s.respond(w, r, http.StatusCreated, msg, err)
}

func (s *Server) readMessageHandler(w http.ResponseWriter, r *http.Request) {
	msg, err := s.ATS.MarkMessageRead(r.Context(), actorFrom(r), r.PathValue("id"))
	s.respond(w, r, http.StatusOK, msg, err)
}

func (s *Server) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	notes, err := s.ATS.ListNotifications(r.Context(), actorFrom(r), queryBool(r, "unread"), pageFrom(r))
	s.respond(w, r, http.StatusOK, map[string]any{"notifications": notes}, err)
}

func (s *Server) readNotificationHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.ATS.MarkNotificationRead(r.Context(), actorFrom(r), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) readAllNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	n, err := s.ATS.MarkAllNotificationsRead(r.Context(), actorFrom(r))
	s.respond(w, r, http.StatusOK, map[string]any{"updated": n}, err)
}
