package events

import "encoding/json"

// AnalysisRequestedEvent is published to analysis.requested.
type AnalysisRequestedEvent struct {
	RequestID   string          `json:"request_id"`
	Workflow    string          `json:"workflow"`
	Params      json.RawMessage `json:"params"`
	RequestedAt string          `json:"requested_at"`
}

// AnalysisCompletedEvent is published to analysis.completed. Exactly one
// of Result and Error is set.
type AnalysisCompletedEvent struct {
	RequestID   string          `json:"request_id"`
	Workflow    string          `json:"workflow"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CompletedAt string          `json:"completed_at"`
}
