package travel

import (
	"encoding/json"
	"testing"
)

func TestTripJSONCarriesDerivedFields(t *testing.T) {
	exit := crossing("c1", Exit, "Nigeria", RiskHigh, day(2024, 1, 15))
	entry := crossing("c2", Entry, "Nigeria", RiskHigh, day(2024, 1, 27))
	exit.LinkedTrip = "TRIP-7"

	data, err := json.Marshal(Trip{Exit: exit, Entry: entry})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["destination"] != "Nigeria" || got["risk"] != "high" || got["linked_trip"] != "TRIP-7" {
		t.Fatalf("unexpected derived fields: %v", got)
	}
	if got["duration_days"] != float64(12) {
		t.Fatalf("expected 12 days, got %v", got["duration_days"])
	}
	if _, ok := got["exit"].(map[string]any); !ok {
		t.Fatalf("expected exit leg object, got %v", got["exit"])
	}
}
