// Package stats derives display summaries from already-fetched posts and
// investments. Everything here is pure; callers re-run it on every fetch.
package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/shopspring/decimal"
)

// Posts with no deadline sort after every dated post under SortUrgency.
const noDeadlineSentinel = math.MaxInt32

var pointsPerUnit = decimal.NewFromInt(10)

type SortPolicy string

const (
	SortUrgency SortPolicy = "urgency"
	SortAmount  SortPolicy = "amount"
	SortRecent  SortPolicy = "recent"
)

// CategoryAll is the identity filter value.
const CategoryAll = "All"

func TotalFunded(posts []*types.FundingPost) decimal.Decimal {
	total := decimal.Zero
	for _, post := range posts {
		total = total.Add(post.Funded)
	}
	return total
}

func TotalInvested(investments []*types.Investment) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range investments {
		total = total.Add(inv.Amount)
	}
	return total
}

// Points converts an invested amount to loyalty points: 10 points per unit,
// rounded to the nearest whole point.
func Points(amount decimal.Decimal) int64 {
	return amount.Mul(pointsPerUnit).Round(0).IntPart()
}

func TotalPoints(investments []*types.Investment) int64 {
	var total int64
	for _, inv := range investments {
		total += Points(inv.Amount)
	}
	return total
}

// FundedPercent returns funded as a percentage of goal, clamped to [0, 100].
// A zero or negative goal yields 0 rather than dividing by it.
func FundedPercent(funded, goal decimal.Decimal) float64 {
	if goal.Sign() <= 0 {
		return 0
	}

	percent, _ := funded.Div(goal).Mul(decimal.NewFromInt(100)).Float64()
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// RemainingDays returns whole days until the deadline, rounding partial days
// up and flooring at zero. A nil deadline carries no urgency and returns nil.
func RemainingDays(deadline *time.Time, now time.Time) *int {
	if deadline == nil {
		return nil
	}

	days := int(math.Ceil(deadline.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return &days
}

func IsUrgent(remainingDays *int) bool {
	return remainingDays != nil && *remainingDays <= 7
}

func IsAlmostFunded(fundedPercent float64) bool {
	return fundedPercent >= 80
}

// SortPosts returns a sorted copy; the input slice is left alone.
func SortPosts(posts []*types.FundingPost, policy SortPolicy, now time.Time) []*types.FundingPost {
	sorted := make([]*types.FundingPost, len(posts))
	copy(sorted, posts)

	switch policy {
	case SortUrgency:
		sort.SliceStable(sorted, func(i, j int) bool {
			return urgencyRank(sorted[i], now) < urgencyRank(sorted[j], now)
		})
	case SortAmount:
		sort.SliceStable(sorted, func(i, j int) bool {
			left := sorted[i].GoalAmount.Sub(sorted[i].Funded)
			right := sorted[j].GoalAmount.Sub(sorted[j].Funded)
			return left.GreaterThan(right)
		})
	case SortRecent:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
	}

	return sorted
}

func urgencyRank(post *types.FundingPost, now time.Time) int {
	days := RemainingDays(post.Deadline, now)
	if days == nil {
		return noDeadlineSentinel
	}
	return *days
}

// FilterByCategory keeps posts whose category contains the query,
// case-insensitively. An empty query or CategoryAll keeps everything.
func FilterByCategory(posts []*types.FundingPost, category string) []*types.FundingPost {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return posts
	}

	needle := strings.ToLower(category)

	filtered := make([]*types.FundingPost, 0, len(posts))
	for _, post := range posts {
		if strings.Contains(strings.ToLower(post.Category), needle) {
			filtered = append(filtered, post)
		}
	}
	return filtered
}
