package analytics

import "time"

// Outcome classifies how a query evaluation ended.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeEmpty     Outcome = "empty"
	OutcomeMalformed Outcome = "malformed"
	OutcomeRetrieval Outcome = "retrieval_error"
	OutcomeError     Outcome = "error"
)

// QueryEvent is published once per evaluated query.
type QueryEvent struct {
	RunID     string    `json:"run_id"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	Hits      int       `json:"hits"`
	LatencyMs int64     `json:"latency_ms"`
	Outcome   Outcome   `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
