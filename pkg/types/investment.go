package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investment records a single support action against one post. Rows are
// immutable once written. Investor identity and the post's descriptive fields
// are snapshotted at invest time so dashboards render without a join.
type Investment struct {
	ID            string          `db:"id" json:"id"`
	PostID        string          `db:"post_id" json:"postId"`
	InvestorID    string          `db:"investor_id" json:"investorId"`
	InvestorName  string          `db:"investor_name" json:"investorName"`
	InvestorEmail string          `db:"investor_email" json:"investorEmail"`
	ApplicantName string          `db:"applicant_name" json:"applicantName"`
	Category      string          `db:"category" json:"category"`
	Location      string          `db:"location" json:"location"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	InvestedAt    time.Time       `db:"invested_at" json:"investedAt"`
}
