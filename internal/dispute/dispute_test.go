package dispute

import (
	"testing"

	"github.com/AdedejiAdetola/swans-backend/internal/models"
)

func TestCanTransition(t *testing.T) {
	allowed := map[[2]models.DisputeStatus]bool{
		{models.DisputeStatusFiled, models.DisputeStatusInReview}:    true,
		{models.DisputeStatusFiled, models.DisputeStatusClosed}:      true,
		{models.DisputeStatusInReview, models.DisputeStatusResolved}: true,
		{models.DisputeStatusInReview, models.DisputeStatusClosed}:   true,
		{models.DisputeStatusResolved, models.DisputeStatusClosed}:   true,
	}

	all := []models.DisputeStatus{
		models.DisputeStatusFiled,
		models.DisputeStatusInReview,
		models.DisputeStatusResolved,
		models.DisputeStatusClosed,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]models.DisputeStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransition_ClosedIsTerminal(t *testing.T) {
	for _, to := range []models.DisputeStatus{
		models.DisputeStatusFiled,
		models.DisputeStatusInReview,
		models.DisputeStatusResolved,
		models.DisputeStatusClosed,
	} {
		if CanTransition(models.DisputeStatusClosed, to) {
			t.Errorf("closed dispute should not transition to %s", to)
		}
	}
}
