package api

import (
	"net/http"

	"loan-advisor/internal/common/errors"
	"loan-advisor/internal/common/validation"
	"loan-advisor/internal/models"
)

// userHeader identifies the caller when the body or query omits userId.
const userHeader = "X-User-ID"

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.TurnRequest
	if err := decodeBody(w, r, validation.TurnRequestSchema(), &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.UserID == "" {
		req.UserID = r.Header.Get(userHeader)
	}
	if req.UserID == "" {
		s.writeError(w, r, errors.NewValidationError("userId is required"))
		return
	}

	result, err := s.advisor.HandleTurn(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := s.advisor.History(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.advisor.Clear(r.Context(), userID(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Chat history cleared"})
}

func userID(r *http.Request) string {
	if id := r.Header.Get(userHeader); id != "" {
		return id
	}
	return r.URL.Query().Get("userId")
}
