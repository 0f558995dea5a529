package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/harshitajain06/Finji/internal/store"
	"github.com/harshitajain06/Finji/internal/utils"
	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/shopspring/decimal"
)

var fakeLoanPurposes = []string{
	"Buying a second sewing machine to take on more tailoring orders.",
	"Stocking the market stall ahead of the harvest festival season.",
	"Replacing a broken refrigerator in the family food kiosk.",
	"Purchasing seed and fertilizer for the next planting cycle.",
	"Covering certification fees to start a home catering business.",
	"Buying tools and materials to expand a furniture workshop.",
	"Adding a delivery bicycle to reach customers in nearby villages.",
	"Upgrading the irrigation pump for a small vegetable farm.",
}

var fakeCategories = []string{
	"Food & Beverage",
	"Agriculture",
	"Retail",
	"Education",
	"Crafts",
	"Services",
}

var fakeLocations = []string{
	"Nairobi, Kenya",
	"Manila, Philippines",
	"La Paz, Bolivia",
	"Phnom Penh, Cambodia",
	"Accra, Ghana",
	"Quito, Ecuador",
}

var fakeApplicants = []string{
	"Amina Odhiambo",
	"Rosa Delgado",
	"Sokha Chan",
	"Kwame Mensah",
	"Maria Santos",
	"Lucia Vargas",
}

var fakeInvestors = []types.Identity{
	{UserID: "seed-investor-1", DisplayName: "Demo Investor One", Email: "investor1@example.com"},
	{UserID: "seed-investor-2", DisplayName: "Demo Investor Two", Email: "investor2@example.com"},
	{UserID: "seed-investor-3", DisplayName: "Demo Investor Three", Email: "investor3@example.com"},
}

// SeedFakePosts creates demo funding posts and runs a few investments through
// the real ledger so seeded totals stay consistent with investment rows.
func SeedFakePosts(ctx context.Context, postsRepo *store.PostRepository, ledger *store.Ledger, count int) ([]*types.FundingPost, error) {
	posts := make([]*types.FundingPost, 0, count)

	for i := 0; i < count; i++ {
		applicant := fakeApplicants[rand.Intn(len(fakeApplicants))]
		purpose := fakeLoanPurposes[rand.Intn(len(fakeLoanPurposes))]
		goal := decimal.NewFromInt(int64(500 + rand.Intn(9)*500))

		post := &types.FundingPost{
			UserID:        "seed-applicant-" + utils.NanoIDSize(8),
			ApplicantName: applicant,
			Location:      fakeLocations[rand.Intn(len(fakeLocations))],
			Category:      fakeCategories[rand.Intn(len(fakeCategories))],
			Description:   fmt.Sprintf("%s is raising funds for a small business.", applicant),
			UseOfFunds:    purpose,
			LoanPurpose:   purpose,
			GoalAmount:    goal,
			Funded:        decimal.Zero,
		}

		// Roughly two thirds of seeded posts carry a deadline.
		if rand.Intn(3) > 0 {
			deadline := time.Now().AddDate(0, 0, 3+rand.Intn(42))
			post.Deadline = &deadline
		}

		if err := postsRepo.CreatePost(ctx, post); err != nil {
			return nil, fmt.Errorf("failed to seed post: %w", err)
		}

		for j := 0; j < rand.Intn(4); j++ {
			investor := fakeInvestors[rand.Intn(len(fakeInvestors))]
			amount := decimal.NewFromInt(int64(25 * (1 + rand.Intn(8))))

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

			funded, err := ledger.RecordInvestment(ctx, inv)
			if err != nil {
				return nil, fmt.Errorf("failed to seed investment: %w", err)
			}
			post.Funded = funded
		}

		posts = append(posts, post)
	}

	return posts, nil
}
