package amqp

import (
	"strings"
	"testing"
	"time"
)

func TestSummaryRequestMessageJSON(t *testing.T) {
	msg := NewSummaryRequestMessage("user-1", "2025-06-30")
	if msg.Timestamp.IsZero() {
		t.Error("timestamp should be set on creation")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	for _, key := range []string{`"user_id"`, `"reference_date"`, `"timestamp"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoded message missing %s: %s", key, data)
		}
	}

	decoded, err := SummaryRequestMessageFromJSON(data)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.UserID != "user-1" || decoded.ReferenceDate != "2025-06-30" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestSummaryRequestMessageEmptyReferenceDate(t *testing.T) {
	data, err := NewSummaryRequestMessage("user-1", "").ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := SummaryRequestMessageFromJSON(data)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.ReferenceDate != "" {
		t.Errorf("reference date = %q, want empty (means today)", decoded.ReferenceDate)
	}
}

func TestSummaryRequestMessageFromJSONInvalid(t *testing.T) {
	if _, err := SummaryRequestMessageFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestSummaryReadyMessageJSON(t *testing.T) {
	generatedAt := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	summary := map[string]any{
		"user_id":      "user-1",
		"generated_at": "2025-06-30T12:00:00Z",
		"metadata": map[string]any{
			"fallbacks_applied": []string{"credit"},
		},
	}

	data, err := NewSummaryReadyMessage("user-1", generatedAt, summary).ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}

	decoded, err := SummaryReadyMessageFromJSON(data)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.UserID != "user-1" {
		t.Errorf("user id = %q", decoded.UserID)
	}
	if !decoded.GeneratedAt.Equal(generatedAt) {
		t.Errorf("generated at = %v", decoded.GeneratedAt)
	}
	meta, ok := decoded.Summary["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("metadata lost in transit: %v", decoded.Summary)
	}
	fallbacks, ok := meta["fallbacks_applied"].([]any)
	if !ok || len(fallbacks) != 1 || fallbacks[0] != "credit" {
		t.Errorf("fallbacks = %v", meta["fallbacks_applied"])
	}
}
