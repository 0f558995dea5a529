package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/harshitajain06/Finji/internal/funding"
	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type investRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// handleInvest records a confirmed support action. The client shows the
// confirmation summary first; by the time this is called the user has agreed
// to the amount.
func (s *Service) handleInvest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := s.identityFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	postID := strings.TrimSpace(r.PathValue("postID"))
	if postID == "" {
		s.respondError(w, http.StatusNotFound, "post not found")
		return
	}

	var req investRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.recorder.Invest(ctx, postID, identity, req.Amount)
	if err != nil {
		var verr *funding.ValidationError
		if !errors.As(err, &verr) && !errors.Is(err, types.ErrPostNotFound) {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"post_id":     postID,
				"investor_id": identity.UserID,
			}).Error("failed to record investment")
		}
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, result)
}
