package ledger

import (
	"testing"

	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func rates(likes, views, retweets, comments, clicks int64) models.BonusRates {
	return models.BonusRates{
		Likes:      decimal.NewFromInt(likes),
		Views:      decimal.NewFromInt(views),
		Retweets:   decimal.NewFromInt(retweets),
		Comments:   decimal.NewFromInt(comments),
		LinkClicks: decimal.NewFromInt(clicks),
	}
}

func TestBonus_WorkedExample(t *testing.T) {
	// 250 likes earn 2 full units at rate 5; 50 views are below one unit
	m := models.EngagementMetrics{Likes: 250, Views: 50}
	r := rates(5, 2, 10, 8, 15)

	got := Bonus(m, r)
	want := decimal.NewFromInt(10)
	if !got.Equal(want) {
		t.Fatalf("Bonus(250 likes, 50 views) = %s, want %s", got.String(), want.String())
	}
}

func TestBonus_BelowUnitIsZero(t *testing.T) {
	m := models.EngagementMetrics{Likes: 99, Views: 99, Retweets: 99, Comments: 99, LinkClicks: 99}
	r := rates(5, 5, 5, 5, 5)

	if got := Bonus(m, r); !got.IsZero() {
		t.Fatalf("Bonus with all counts below 100 = %s, want 0", got.String())
	}
}

func TestBonus_ZeroRates(t *testing.T) {
	m := models.EngagementMetrics{Likes: 10000, Views: 10000}
	if got := Bonus(m, models.BonusRates{}); !got.IsZero() {
		t.Fatalf("Bonus with zero rates = %s, want 0", got.String())
	}
}

// TestProperty_Bonus_NonNegative tests that the bonus is never negative for
// any combination of counts and non-negative rates
func TestProperty_Bonus_NonNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := models.EngagementMetrics{
			Likes:      rapid.Int64Range(0, 1_000_000).Draw(rt, "likes"),
			Views:      rapid.Int64Range(0, 1_000_000).Draw(rt, "views"),
			Retweets:   rapid.Int64Range(0, 1_000_000).Draw(rt, "retweets"),
			Comments:   rapid.Int64Range(0, 1_000_000).Draw(rt, "comments"),
			LinkClicks: rapid.Int64Range(0, 1_000_000).Draw(rt, "linkClicks"),
		}
		r := rates(
			rapid.Int64Range(0, 1000).Draw(rt, "rateLikes"),
			rapid.Int64Range(0, 1000).Draw(rt, "rateViews"),
			rapid.Int64Range(0, 1000).Draw(rt, "rateRetweets"),
			rapid.Int64Range(0, 1000).Draw(rt, "rateComments"),
			rapid.Int64Range(0, 1000).Draw(rt, "rateClicks"),
		)

		if Bonus(m, r).IsNegative() {
			t.Fatalf("PROPERTY VIOLATION: bonus is negative for metrics %+v", m)
		}
	})
}

// TestProperty_Bonus_MonotoneInCounts tests that adding engagement never
// lowers the bonus
func TestProperty_Bonus_MonotoneInCounts(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.Int64Range(0, 100_000).Draw(rt, "base")
		extra := rapid.Int64Range(0, 100_000).Draw(rt, "extra")
		rate := rapid.Int64Range(0, 1000).Draw(rt, "rate")

		r := rates(rate, 0, 0, 0, 0)
		lower := Bonus(models.EngagementMetrics{Likes: base}, r)
		higher := Bonus(models.EngagementMetrics{Likes: base + extra}, r)

		if higher.LessThan(lower) {
			t.Fatalf("PROPERTY VIOLATION: bonus decreased from %s to %s when likes grew from %d to %d",
				lower.String(), higher.String(), base, base+extra)
		}
	})
}

// TestProperty_Bonus_StepwiseInUnits tests that the bonus depends only on the
// number of complete 100-count units: count and (count/100)*100 pay the same
func TestProperty_Bonus_StepwiseInUnits(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.Int64Range(0, 1_000_000).Draw(rt, "count")
		rate := rapid.Int64Range(0, 1000).Draw(rt, "rate")

		r := rates(rate, 0, 0, 0, 0)
		exact := Bonus(models.EngagementMetrics{Likes: count}, r)
		truncated := Bonus(models.EngagementMetrics{Likes: (count / 100) * 100}, r)

		if !exact.Equal(truncated) {
			t.Fatalf("PROPERTY VIOLATION: bonus for %d likes (%s) differs from bonus at the unit boundary (%s)",
				count, exact.String(), truncated.String())
		}
	})
}

// TestProperty_Bonus_SumOfMetrics tests that the total bonus equals the sum
// of per-metric bonuses
func TestProperty_Bonus_SumOfMetrics(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := models.EngagementMetrics{
			Likes: rapid.Int64Range(0, 100_000).Draw(rt, "likes"),
			Views: rapid.Int64Range(0, 100_000).Draw(rt, "views"),
		}
		rateLikes := rapid.Int64Range(0, 1000).Draw(rt, "rateLikes")
		rateViews := rapid.Int64Range(0, 1000).Draw(rt, "rateViews")

		combined := Bonus(m, rates(rateLikes, rateViews, 0, 0, 0))
		likesOnly := Bonus(models.EngagementMetrics{Likes: m.Likes}, rates(rateLikes, 0, 0, 0, 0))
		viewsOnly := Bonus(models.EngagementMetrics{Views: m.Views}, rates(0, rateViews, 0, 0, 0))

		if !combined.Equal(likesOnly.Add(viewsOnly)) {
			t.Fatalf("PROPERTY VIOLATION: combined bonus %s != %s + %s",
				combined.String(), likesOnly.String(), viewsOnly.String())
		}
	})
}
