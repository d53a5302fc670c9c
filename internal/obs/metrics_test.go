package obs

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                       "/",
		"/metrics":                               "/metrics",
		"/v1/subjects/S-1/crossings":             "/v1/subjects/:id/crossings",
		"/v1/subjects/S-1/trips":                 "/v1/subjects/:id/trips",
		"/v1/subjects/S-1/hotel-stays/summary":   "/v1/subjects/:id/hotel-stays/summary",
		"/v1/subjects/S-1/transactions?limit=10": "/v1/subjects/:id/transactions",
		"/v1/subjects/S-1/unknown":               "/v1/subjects/S-1/unknown",
		"/v1/tasks/tsk_01":                       "/v1/tasks/:id",
		"/v1/tasks/summary":                      "/v1/tasks/summary",
		"/v1/analysis/trips":                     "/v1/analysis/trips",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestInstrumentPassesThroughStatus(t *testing.T) {
	Init()
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/tasks/abc", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status %d", rr.Code)
	}
}

func TestErrorLogIncludesLevelAndError(t *testing.T) {
	l := Logger()
	orig := l.Writer()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	defer l.SetOutput(orig)

	Error("store failure", errors.New("boom"), map[string]any{"subject": "S-1"})

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["level"] != "error" || entry["error"] != "boom" || entry["subject"] != "S-1" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
