package events

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/google/uuid"
)

// Observers read events over the API and the redis channel; the payload must
// come through as the JSON object that was stored, not a base64 blob.
func TestEventPayloadMarshalsAsJSON(t *testing.T) {
	ev := models.Event{
		ID:         uuid.New(),
		Seq:        7,
		EntityType: "campaign",
		EntityID:   "summer-launch",
		Action:     "campaign.created",
		Payload:    json.RawMessage(`{"total_budget":"5000"}`),
	}

	out, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(out), `"payload":{"total_budget":"5000"}`) {
		t.Errorf("payload not embedded as JSON: %s", out)
	}

	var back models.Event
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(back.Payload) != `{"total_budget":"5000"}` {
		t.Errorf("payload round-trip = %s", back.Payload)
	}
}

func TestEventEmptyPayloadOmitted(t *testing.T) {
	out, err := json.Marshal(models.Event{ID: uuid.New(), Action: "dispute.closed"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(out), "payload") {
		t.Errorf("empty payload should be omitted: %s", out)
	}
}
