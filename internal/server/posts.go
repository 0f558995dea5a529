package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harshitajain06/Finji/internal/funding"
	"github.com/harshitajain06/Finji/internal/stats"
	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/shopspring/decimal"
)

const maxImageUploadBytes = 10 << 20

// postView wraps a post with the derived display fields every screen needs.
type postView struct {
	*types.FundingPost
	FundedPercent  float64 `json:"fundedPercent"`
	RemainingDays  *int    `json:"remainingDays,omitempty"`
	IsUrgent       bool    `json:"isUrgent"`
	IsAlmostFunded bool    `json:"isAlmostFunded"`
}

func newPostView(post *types.FundingPost, now time.Time) postView {
	percent := stats.FundedPercent(post.Funded, post.GoalAmount)
	days := stats.RemainingDays(post.Deadline, now)

	return postView{
		FundingPost:    post,
		FundedPercent:  percent,
		RemainingDays:  days,
		IsUrgent:       stats.IsUrgent(days),
		IsAlmostFunded: stats.IsAlmostFunded(percent),
	}
}

func newPostViews(posts []*types.FundingPost, now time.Time) []postView {
	views := make([]postView, 0, len(posts))
	for _, post := range posts {
		views = append(views, newPostView(post, now))
	}
	return views
}

type postForm struct {
	ApplicantName string `form:"applicantName"`
	Location      string `form:"location"`
	Category      string `form:"category"`
	Description   string `form:"description"`
	UseOfFunds    string `form:"useOfFunds"`
	LoanPurpose   string `form:"loanPurpose"`
	GoalAmount    string `form:"goalAmount"`
	Deadline      string `form:"deadline"`
}

// postInputFromRequest decodes the multipart form into a funding input plus
// the attached image, when one was sent.
func (s *Service) postInputFromRequest(r *http.Request) (funding.PostInput, *funding.ImageUpload, error) {
	var input funding.PostInput

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		return input, nil, err
	}

	var f postForm
	if err := decoder.Decode(&f, r.Form); err != nil {
		return input, nil, err
	}

	input = funding.PostInput{
		ApplicantName: f.ApplicantName,
		Location:      f.Location,
		Category:      f.Category,
		Description:   f.Description,
		UseOfFunds:    f.UseOfFunds,
		LoanPurpose:   f.LoanPurpose,
	}

	if strings.TrimSpace(f.GoalAmount) != "" {
		goal, err := decimal.NewFromString(strings.TrimSpace(f.GoalAmount))
		if err != nil {
			return input, nil, err
		}
		input.GoalAmount = goal
	}

	if strings.TrimSpace(f.Deadline) != "" {
		deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(f.Deadline))
		if err != nil {
			return input, nil, err
		}
		input.Deadline = &deadline
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return input, nil, nil
		}
		return input, nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return input, nil, err
	}

	image := &funding.ImageUpload{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
	}

	return input, image, nil
}

// handleListPosts is the browse surface: every post, newest first, optionally
// filtered by category and re-sorted by the caller's policy. Query failures
// degrade to an empty list rather than an error page.
func (s *Service) handleListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now()

	posts, err := s.postsRepo.Posts(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch posts for browse")
		posts = []*types.FundingPost{}
	}

	posts = stats.FilterByCategory(posts, r.URL.Query().Get("category"))

	if policy := stats.SortPolicy(r.URL.Query().Get("sort")); policy != "" {
		posts = stats.SortPosts(posts, policy, now)
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"posts":       newPostViews(posts, now),
		"totalFunded": stats.TotalFunded(posts),
	})
}

// handleGetPost serves the detail view, which doubles as the confirmation
// summary shown before an investment.
func (s *Service) handleGetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postID := strings.TrimSpace(r.PathValue("postID"))
	if postID == "" {
		s.respondError(w, http.StatusNotFound, "post not found")
		return
	}

	post, err := s.postsRepo.Post(ctx, postID)
	if err != nil {
		if !errors.Is(err, types.ErrPostNotFound) {
			s.logger.WithError(err).WithField("post_id", postID).Error("failed to fetch post")
		}
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, newPostView(post, time.Now()))
}

func (s *Service) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := s.identityFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	input, image, err := s.postInputFromRequest(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	post, err := s.fundingSvc.CreatePost(ctx, identity.UserID, input, image)
	if err != nil {
		var verr *funding.ValidationError
		if !errors.As(err, &verr) {
			s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to create post")
		}
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, newPostView(post, time.Now()))
}

func (s *Service) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
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

	input, image, err := s.postInputFromRequest(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	post, err := s.fundingSvc.UpdatePost(ctx, postID, identity.UserID, input, image)
	if err != nil {
		var verr *funding.ValidationError
		if !errors.As(err, &verr) && !errors.Is(err, types.ErrPostNotFound) && !errors.Is(err, types.ErrNotPostOwner) {
			s.logger.WithError(err).WithField("post_id", postID).Error("failed to update post")
		}
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, newPostView(post, time.Now()))
}

func (s *Service) handleMyPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := s.identityFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	posts, err := s.postsRepo.PostsByOwner(ctx, identity.UserID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to fetch own posts")
		posts = []*types.FundingPost{}
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"posts": newPostViews(posts, time.Now()),
	})
}

// handleEditTarget tells the post screen whether to open in edit mode: 200
// with the applicant's latest post, or 404 meaning create mode.
func (s *Service) handleEditTarget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := s.identityFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	post, err := s.fundingSvc.EditTarget(ctx, identity.UserID)
	if err != nil {
		if !errors.Is(err, types.ErrPostNotFound) {
			s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to fetch edit target")
		}
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, newPostView(post, time.Now()))
}

func (s *Service) handlePostInvestments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postID := strings.TrimSpace(r.PathValue("postID"))
	if postID == "" {
		s.respondError(w, http.StatusNotFound, "post not found")
		return
	}

	investments, err := s.investmentsRepo.InvestmentsByPost(ctx, postID)
	if err != nil {
		s.logger.WithError(err).WithField("post_id", postID).Error("failed to fetch investments for post")
		investments = []*types.Investment{}
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"investments":   investments,
		"totalInvested": stats.TotalInvested(investments),
	})
}
