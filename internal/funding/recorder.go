package funding

import (
	"context"
	"fmt"

	"github.com/harshitajain06/Finji/internal/stats"
	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PostReader is the read slice the recorder needs to snapshot post fields.
type PostReader interface {
	Post(ctx context.Context, postID string) (*types.FundingPost, error)
}

// Recorder turns a confirmed support action into ledger writes. The caller is
// expected to have shown the confirmation summary already; cancellation means
// Invest is simply never called.
type Recorder struct {
	posts  PostReader
	ledger InvestmentLedger
	logger *logrus.Logger
}

func NewRecorder(posts PostReader, ledger InvestmentLedger, logger *logrus.Logger) *Recorder {
	return &Recorder{posts: posts, ledger: ledger, logger: logger}
}

type InvestResult struct {
	Investment    *types.Investment `json:"investment"`
	Funded        decimal.Decimal   `json:"funded"`
	FundedPercent float64           `json:"fundedPercent"`
}

// Invest validates, snapshots the investor identity and the post's
// descriptive fields onto a new investment, and hands it to the ledger. No
// write happens on a validation failure.
func (r *Recorder) Invest(ctx context.Context, postID string, investor types.Identity, amount decimal.Decimal) (*InvestResult, error) {
	if investor.UserID == "" {
		return nil, fmt.Errorf("invest requires an authenticated investor")
	}

	if !amount.IsPositive() {
		return nil, newValidationError(FieldError{Field: "amount", Message: "must be greater than zero"})
	}

	post, err := r.posts.Post(ctx, postID)
	if err != nil {
		return nil, err
	}

	inv := &types.Investment{
		PostID:        post.ID,
		InvestorID:    investor.UserID,
		InvestorName:  investor.DisplayName,
		InvestorEmail: investor.Email,
		ApplicantName: post.ApplicantName,
		Category:      post.Category,
		Location:      post.Location,
		Amount:        amount,
	}

	funded, err := r.ledger.RecordInvestment(ctx, inv)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"post_id":     post.ID,
		"investor_id": investor.UserID,
		"amount":      amount.String(),
		"funded":      funded.String(),
	}).Info("investment recorded")

	return &InvestResult{
		Investment:    inv,
		Funded:        funded,
		FundedPercent: stats.FundedPercent(funded, post.GoalAmount),
	}, nil
}
