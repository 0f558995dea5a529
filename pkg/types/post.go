package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundingPost is a loan request created by an applicant. Funded is a running
// total maintained by the investment ledger; nothing caps it at GoalAmount, so
// over-funded posts are representable.
type FundingPost struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"userId"`
	ApplicantName string          `db:"applicant_name" json:"applicantName"`
	Location      string          `db:"location" json:"location"`
	Category      string          `db:"category" json:"category"`
	Description   string          `db:"description" json:"description"`
	UseOfFunds    string          `db:"use_of_funds" json:"useOfFunds"`
	LoanPurpose   string          `db:"loan_purpose" json:"loanPurpose"`
	GoalAmount    decimal.Decimal `db:"goal_amount" json:"goalAmount"`
	Funded        decimal.Decimal `db:"funded" json:"funded"`
	Deadline      *time.Time      `db:"deadline" json:"deadline,omitempty"`
	ImageURL      *string         `db:"image_url" json:"imageUrl,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}
