package campaign

import (
	"errors"
	"testing"
	"time"

	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

var (
	appStart  = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	appEnd    = time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	campStart = time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	campEnd   = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
)

func testCampaign() *models.Campaign {
	return &models.Campaign{
		ID:            "winter-launch",
		BrandID:       "nike",
		Status:        models.CampaignStatusOpen,
		AppStart:      appStart,
		AppEnd:        appEnd,
		CampaignStart: campStart,
		CampaignEnd:   campEnd,
	}
}

func TestPhase(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want models.CampaignPhase
	}{
		{"before applications", appStart.Add(-time.Hour), models.PhaseOpen},
		{"during applications", appStart.Add(time.Hour), models.PhaseOpen},
		{"last instant of applications", appEnd.Add(-time.Nanosecond), models.PhaseOpen},
		{"at application end", appEnd, models.PhaseActive},
		{"mid campaign", campStart.Add(24 * time.Hour), models.PhaseActive},
		{"at campaign end", campEnd, models.PhaseReviewClosed},
		{"long after", campEnd.Add(365 * 24 * time.Hour), models.PhaseReviewClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Phase(testCampaign(), tt.now); got != tt.want {
				t.Errorf("Phase(%s) = %s, want %s", tt.now, got, tt.want)
			}
		})
	}
}

func TestPhase_CompletedOverridesWindows(t *testing.T) {
	c := testCampaign()
	c.Status = models.CampaignStatusCompleted

	// Completion wins even while the windows say otherwise
	if got := Phase(c, appStart.Add(time.Hour)); got != models.PhaseCompleted {
		t.Errorf("Phase of completed campaign = %s, want %s", got, models.PhaseCompleted)
	}
}

func TestInApplicationWindow_Boundaries(t *testing.T) {
	c := testCampaign()

	if !InApplicationWindow(c, appStart) {
		t.Error("application window should include its start instant")
	}
	if !InApplicationWindow(c, appEnd.Add(-time.Nanosecond)) {
		t.Error("application window should include the instant just before its end")
	}
	if InApplicationWindow(c, appEnd) {
		t.Error("application window should exclude its end instant")
	}
	if InApplicationWindow(c, appStart.Add(-time.Nanosecond)) {
		t.Error("application window should exclude instants before its start")
	}
}

func TestValidateWindows(t *testing.T) {
	tests := []struct {
		name                       string
		as, ae, cs, ce             time.Time
		wantErr                    bool
	}{
		{"valid", appStart, appEnd, campStart, campEnd, false},
		{"applications end when campaign starts", appStart, campStart, campStart, campEnd, false},
		{"empty application window", appStart, appStart, campStart, campEnd, true},
		{"reversed application window", appEnd, appStart, campStart, campEnd, true},
		{"empty campaign window", appStart, appEnd, campStart, campStart, true},
		{"applications overlap campaign", appStart, campStart.Add(time.Hour), campStart, campEnd, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWindows(tt.as, tt.ae, tt.cs, tt.ce)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWindows() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func validCreateRequest() *CreateRequest {
	return &CreateRequest{
		ID:              "winter-launch",
		TotalBudget:     decimal.NewFromInt(1000),
		BasePayment:     decimal.NewFromInt(100),
		AppStart:        appStart,
		AppEnd:          appEnd,
		CampaignStart:   campStart,
		CampaignEnd:     campEnd,
		MaxParticipants: 10,
	}
}

func TestCreateRequest_Validate(t *testing.T) {
	if err := validCreateRequest().validate(64); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	t.Run("budget below base floor", func(t *testing.T) {
		req := validCreateRequest()
		req.TotalBudget = decimal.NewFromInt(999)
		if err := req.validate(64); !errors.Is(err, ErrInvalidBudget) {
			t.Errorf("got %v, want ErrInvalidBudget", err)
		}
	})

	t.Run("budget exactly at floor", func(t *testing.T) {
		req := validCreateRequest()
		req.TotalBudget = decimal.NewFromInt(1000)
		if err := req.validate(64); err != nil {
			t.Errorf("budget equal to base*max should be accepted, got %v", err)
		}
	})

	t.Run("zero base payment", func(t *testing.T) {
		req := validCreateRequest()
		req.BasePayment = decimal.Zero
		if err := req.validate(64); !errors.Is(err, ErrInvalidBasePayment) {
			t.Errorf("got %v, want ErrInvalidBasePayment", err)
		}
	})

	t.Run("zero participants", func(t *testing.T) {
		req := validCreateRequest()
		req.MaxParticipants = 0
		if err := req.validate(64); !errors.Is(err, ErrInvalidParticipants) {
			t.Errorf("got %v, want ErrInvalidParticipants", err)
		}
	})

	t.Run("negative rate", func(t *testing.T) {
		req := validCreateRequest()
		req.Rates.Views = decimal.NewFromInt(-1)
		if err := req.validate(64); !errors.Is(err, ErrNegativeRate) {
			t.Errorf("got %v, want ErrNegativeRate", err)
		}
	})
}

// TestProperty_Phase_CoversAllInstants tests that every instant maps to
// exactly one phase and phases never move backwards in time
func TestProperty_Phase_CoversAllInstants(t *testing.T) {
	c := testCampaign()
	order := map[models.CampaignPhase]int{
		models.PhaseOpen:         0,
		models.PhaseActive:       1,
		models.PhaseReviewClosed: 2,
	}

	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Int64Range(-1e9, 1e9).Draw(rt, "offsetA")
		b := rapid.Int64Range(-1e9, 1e9).Draw(rt, "offsetB")
		if a > b {
			a, b = b, a
		}

		earlier := Phase(c, appStart.Add(time.Duration(a)*time.Second))
		later := Phase(c, appStart.Add(time.Duration(b)*time.Second))

		if order[later] < order[earlier] {
			t.Fatalf("PROPERTY VIOLATION: phase moved backwards from %s to %s", earlier, later)
		}
	})
}
