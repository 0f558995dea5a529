package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/harshitajain06/Finji/internal/stats"
	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/shopspring/decimal"
)

// investmentView pairs an investment with the target post's live figures so
// the investor dashboard renders each holding without further fetches.
type investmentView struct {
	*types.Investment
	GoalAmount    decimal.Decimal `json:"goalAmount"`
	Funded        decimal.Decimal `json:"funded"`
	FundedPercent float64         `json:"fundedPercent"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	ImageURL      *string         `json:"imageUrl,omitempty"`
	Points        int64           `json:"points"`
}

type investorDashboard struct {
	DisplayName       string           `json:"displayName"`
	Role              types.Role       `json:"role"`
	Investments       []investmentView `json:"investments"`
	TotalInvested     decimal.Decimal  `json:"totalInvested"`
	TotalProjects     int              `json:"totalProjects"`
	TotalPoints       int64            `json:"totalPoints"`
	AverageInvestment decimal.Decimal  `json:"averageInvestment"`
}

type applicantPostView struct {
	postView
	Investments   []*types.Investment `json:"investments"`
	InvestorCount int                 `json:"investorCount"`
}

type applicantDashboard struct {
	DisplayName string              `json:"displayName"`
	Role        types.Role          `json:"role"`
	Posts       []applicantPostView `json:"posts"`
	TotalFunded decimal.Decimal     `json:"totalFunded"`
}

// handleInvestorDashboard summarizes the caller's investing activity: each
// investment joined with its post's current figures, plus running totals and
// loyalty points.
func (s *Service) handleInvestorDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := s.identityFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	role := s.lookupRole(ctx, identity.UserID)

	investments, err := s.investmentsRepo.InvestmentsByInvestor(ctx, identity.UserID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to fetch investments for dashboard")
		investments = []*types.Investment{}
	}

	postIDs := make([]string, 0, len(investments))
	for _, inv := range investments {
		postIDs = append(postIDs, inv.PostID)
	}

	posts, err := s.postsRepo.PostsByIDs(ctx, postIDs)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to fetch posts for dashboard")
		posts = []*types.FundingPost{}
	}

	postsByID := make(map[string]*types.FundingPost, len(posts))
	for _, post := range posts {
		postsByID[post.ID] = post
	}

	views := make([]investmentView, 0, len(investments))
	for _, inv := range investments {
		view := investmentView{
			Investment: inv,
			Points:     stats.Points(inv.Amount),
		}

		// Investments whose post disappeared still show from their snapshot.
		if post, ok := postsByID[inv.PostID]; ok {
			view.GoalAmount = post.GoalAmount
			view.Funded = post.Funded
			view.FundedPercent = stats.FundedPercent(post.Funded, post.GoalAmount)
			view.Deadline = post.Deadline
			view.ImageURL = post.ImageURL
		}

		views = append(views, view)
	}

	totalInvested := stats.TotalInvested(investments)

	average := decimal.Zero
	if len(investments) > 0 {
		average = totalInvested.Div(decimal.NewFromInt(int64(len(investments)))).Round(0)
	}

	s.respondJSON(w, http.StatusOK, investorDashboard{
		DisplayName:       displayName(identity),
		Role:              role,
		Investments:       views,
		TotalInvested:     totalInvested,
		TotalProjects:     len(investments),
		TotalPoints:       stats.TotalPoints(investments),
		AverageInvestment: average,
	})
}

// handleApplicantDashboard summarizes the caller's funding requests: each
// post with its progress figures and the investors behind it.
func (s *Service) handleApplicantDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := s.identityFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	role := s.lookupRole(ctx, identity.UserID)

	posts, err := s.postsRepo.PostsByOwner(ctx, identity.UserID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to fetch posts for dashboard")
		posts = []*types.FundingPost{}
	}

	now := time.Now()

	views := make([]applicantPostView, 0, len(posts))
	for _, post := range posts {
		investments, err := s.investmentsRepo.InvestmentsByPost(ctx, post.ID)
		if err != nil {
			s.logger.WithError(err).WithField("post_id", post.ID).Error("failed to fetch investments for dashboard post")
			investments = []*types.Investment{}
		}

		views = append(views, applicantPostView{
			postView:      newPostView(post, now),
			Investments:   investments,
			InvestorCount: len(investments),
		})
	}

	s.respondJSON(w, http.StatusOK, applicantDashboard{
		DisplayName: displayName(identity),
		Role:        role,
		Posts:       views,
		TotalFunded: stats.TotalFunded(posts),
	})
}

// lookupRole reads the explicit role column; absent rows default to
// applicant, mirroring the registration default.
func (s *Service) lookupRole(ctx context.Context, userID string) types.Role {
	user, err := s.usersRepo.User(ctx, userID)
	if err != nil {
		if !errors.Is(err, types.ErrUserNotFound) {
			s.logger.WithError(err).WithField("user_id", userID).Error("failed to fetch user role")
		}
		return types.RoleApplicant
	}
	return user.Role
}

func displayName(identity types.Identity) string {
	if strings.TrimSpace(identity.DisplayName) != "" {
		return identity.DisplayName
	}
	if at := strings.Index(identity.Email, "@"); at > 0 {
		return identity.Email[:at]
	}
	return identity.Email
}
