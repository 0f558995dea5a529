package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harshitajain06/Finji/internal/funding"
	"github.com/harshitajain06/Finji/pkg/types"
)

type errorResponse struct {
	Error   string               `json:"error"`
	Details []funding.FieldError `json:"details,omitempty"`
}

func (s *Service) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, errorResponse{Error: msg})
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	s.respondError(w, http.StatusInternalServerError, "something went wrong")
}

// respondDomainError maps core errors onto HTTP statuses. Remote failures
// stay generic; validation details are echoed back for the form.
func (s *Service) respondDomainError(w http.ResponseWriter, err error) {
	var verr *funding.ValidationError
	switch {
	case errors.As(err, &verr):
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation failed",
			Details: verr.Fields,
		})
	case errors.Is(err, types.ErrPostNotFound),
		errors.Is(err, types.ErrUserNotFound),
		errors.Is(err, types.ErrInvestmentNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrNotPostOwner):
		s.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, types.ErrInvalidRole):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.internalServerError(w)
	}
}
