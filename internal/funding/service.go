package funding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Image keys follow fundingPosts/<unix-millis>.jpg. Collisions need two
// uploads inside the same millisecond, which nothing guards against.
const imageKeyFmt = "fundingPosts/%d.jpg"

type PostInput struct {
	ApplicantName string          `json:"applicantName"`
	Location      string          `json:"location"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	UseOfFunds    string          `json:"useOfFunds"`
	LoanPurpose   string          `json:"loanPurpose"`
	GoalAmount    decimal.Decimal `json:"goalAmount"`
	Deadline      *time.Time      `json:"deadline"`
}

type ImageUpload struct {
	Data        []byte
	ContentType string
}

// Service owns funding-post writes: validation, image upload, and the soft
// one-post-per-applicant edit policy.
type Service struct {
	posts  PostStore
	blobs  BlobStore
	logger *logrus.Logger
}

func NewService(posts PostStore, blobs BlobStore, logger *logrus.Logger) *Service {
	return &Service{posts: posts, blobs: blobs, logger: logger}
}

func validatePostInput(input PostInput) *ValidationError {
	var fields []FieldError

	if strings.TrimSpace(input.ApplicantName) == "" {
		fields = append(fields, FieldError{Field: "applicantName", Message: "is required"})
	}
	if strings.TrimSpace(input.Location) == "" {
		fields = append(fields, FieldError{Field: "location", Message: "is required"})
	}
	if strings.TrimSpace(input.Description) == "" {
		fields = append(fields, FieldError{Field: "description", Message: "is required"})
	}
	if strings.TrimSpace(input.UseOfFunds) == "" {
		fields = append(fields, FieldError{Field: "useOfFunds", Message: "is required"})
	}
	if !input.GoalAmount.IsPositive() {
		fields = append(fields, FieldError{Field: "goalAmount", Message: "must be greater than zero"})
	}

	if len(fields) > 0 {
		return newValidationError(fields...)
	}
	return nil
}

// CreatePost validates, uploads the image when one is attached, and stores the
// post with a zero funded total. An image upload failure fails the create.
func (s *Service) CreatePost(ctx context.Context, ownerID string, input PostInput, image *ImageUpload) (*types.FundingPost, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	if verr := validatePostInput(input); verr != nil {
		return nil, verr
	}

	post := &types.FundingPost{
		UserID:        ownerID,
		ApplicantName: strings.TrimSpace(input.ApplicantName),
		Location:      strings.TrimSpace(input.Location),
		Category:      strings.TrimSpace(input.Category),
		Description:   strings.TrimSpace(input.Description),
		UseOfFunds:    strings.TrimSpace(input.UseOfFunds),
		LoanPurpose:   strings.TrimSpace(input.LoanPurpose),
		GoalAmount:    input.GoalAmount,
		Funded:        decimal.Zero,
		Deadline:      input.Deadline,
	}

	if image != nil {
		url, err := s.uploadImage(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("failed to upload post image: %w", err)
		}
		post.ImageURL = &url
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// UpdatePost applies an applicant edit. Only the owner may update; the image
// is only re-uploaded when the caller attached a replacement, and the old
// object is deleted best-effort afterwards.
func (s *Service) UpdatePost(ctx context.Context, postID, callerID string, input PostInput, image *ImageUpload) (*types.FundingPost, error) {
	post, err := s.posts.Post(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.UserID != callerID {
		return nil, types.ErrNotPostOwner
	}

	if verr := validatePostInput(input); verr != nil {
		return nil, verr
	}

	previousURL := post.ImageURL

	post.ApplicantName = strings.TrimSpace(input.ApplicantName)
	post.Location = strings.TrimSpace(input.Location)
	post.Category = strings.TrimSpace(input.Category)
	post.Description = strings.TrimSpace(input.Description)
	post.UseOfFunds = strings.TrimSpace(input.UseOfFunds)
	post.LoanPurpose = strings.TrimSpace(input.LoanPurpose)
	post.GoalAmount = input.GoalAmount
	post.Deadline = input.Deadline

	if image != nil {
		url, err := s.uploadImage(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("failed to upload replacement post image: %w", err)
		}
		post.ImageURL = &url
	}

	if err := s.posts.UpdatePost(ctx, postID, post); err != nil {
		return nil, err
	}

	if image != nil && previousURL != nil && *previousURL != *post.ImageURL {
		if key, ok := s.blobs.KeyForURL(*previousURL); ok {
			if err := s.blobs.Delete(ctx, key); err != nil {
				s.logger.WithError(err).WithField("storage_key", key).Warn("failed to delete replaced post image")
			}
		}
	}

	return post, nil
}

// EditTarget implements edit-mode selection: the applicant's most recent post
// when one exists, otherwise ErrPostNotFound signalling create mode.
func (s *Service) EditTarget(ctx context.Context, ownerID string) (*types.FundingPost, error) {
	return s.posts.LatestPostByOwner(ctx, ownerID)
}

func (s *Service) uploadImage(ctx context.Context, image *ImageUpload) (string, error) {
	contentType := image.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := fmt.Sprintf(imageKeyFmt, time.Now().UnixMilli())
	return s.blobs.Upload(ctx, key, image.Data, contentType)
}
