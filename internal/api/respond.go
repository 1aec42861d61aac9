package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"loan-advisor/internal/common/errors"
	"loan-advisor/internal/common/validation"
)

type errorBody struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Details string           `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

// writeError renders err with the status its code maps to. Internal details
// are not exposed on 5xx responses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := errors.AsStandardError(err)
	status := errors.HTTPStatus(stdErr)

	fields := map[string]interface{}{
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     status,
		"error_code": string(stdErr.Code),
		"details":    stdErr.Details,
	}
	body := errorBody{Code: stdErr.Code, Message: stdErr.Message}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields)
	} else {
		s.logger.Warn("request rejected", fields)
		body.Details = stdErr.Details
	}
	s.writeJSON(w, status, errorResponse{Error: body})
}

// decodeBody validates the JSON body against schema, then decodes it into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, schema validation.JSONSchema, dst interface{}) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errors.NewValidationError(fmt.Sprintf("read body: %v", err))
	}
	if err := validation.ValidateJSON(raw, schema).Err(); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.NewValidationError(fmt.Sprintf("decode body: %v", err))
	}
	return nil
}
