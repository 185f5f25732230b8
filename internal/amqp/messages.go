package amqp

import (
	"encoding/json"
	"time"
)

// SummaryRequestMessage asks the worker to recompute behavioral signals
// for one user at a reference date. Published by upstream callers (API
// layer, schedulers).
type SummaryRequestMessage struct {
	UserID        string    `json:"user_id"`
	ReferenceDate string    `json:"reference_date"` // ISO-8601 date; empty means today
	Timestamp     time.Time `json:"timestamp"`
}

// NewSummaryRequestMessage creates a request message for one user.
func NewSummaryRequestMessage(userID string, referenceDate string) *SummaryRequestMessage {
	return &SummaryRequestMessage{
		UserID:        userID,
		ReferenceDate: referenceDate,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SummaryRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SummaryRequestMessageFromJSON creates a message from JSON bytes
func SummaryRequestMessageFromJSON(data []byte) (*SummaryRequestMessage, error) {
	var msg SummaryRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SummaryReadyMessage carries one serialized BehavioralSummary for
// downstream consumers (persona engine, dashboards). Summary is the
// primitives-only ToDict() structure.
type SummaryReadyMessage struct {
	UserID      string         `json:"user_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Summary     map[string]any `json:"summary"`
}

// NewSummaryReadyMessage wraps a serialized summary for publishing.
func NewSummaryReadyMessage(userID string, generatedAt time.Time, summary map[string]any) *SummaryReadyMessage {
	return &SummaryReadyMessage{
		UserID:      userID,
		GeneratedAt: generatedAt,
		Summary:     summary,
	}
}

// ToJSON converts the message to JSON bytes
func (m *SummaryReadyMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SummaryReadyMessageFromJSON creates a message from JSON bytes
func SummaryReadyMessageFromJSON(data []byte) (*SummaryReadyMessage, error) {
	var msg SummaryReadyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
