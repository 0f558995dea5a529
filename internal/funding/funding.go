// Package funding holds the marketplace core: creating and editing funding
// posts, and recording investments against them.
package funding

import (
	"context"
	"fmt"
	"strings"

	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/shopspring/decimal"
)

// PostStore is the slice of the post repository the funding service needs.
type PostStore interface {
	Post(ctx context.Context, postID string) (*types.FundingPost, error)
	LatestPostByOwner(ctx context.Context, userID string) (*types.FundingPost, error)
	CreatePost(ctx context.Context, post *types.FundingPost) error
	UpdatePost(ctx context.Context, postID string, post *types.FundingPost) error
}

// InvestmentLedger applies the investment write pair and reports the updated
// funded total.
type InvestmentLedger interface {
	RecordInvestment(ctx context.Context, inv *types.Investment) (decimal.Decimal, error)
}

// BlobStore uploads post images and resolves their public URLs.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyForURL(url string) (string, bool)
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects bad input before any remote write happens. It is
// surfaced to the user and never retried.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}
