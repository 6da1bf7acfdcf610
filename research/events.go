package research

import "time"

type EventType string

const (
	EventRunStarted         EventType = "run_started"
	EventCredentialVerified EventType = "credential_verified"
	EventStageStarted       EventType = "stage_started"
	EventStageCompleted     EventType = "stage_completed"
	EventDocumentReady      EventType = "document_ready"
	EventRunFailed          EventType = "run_failed"
)

// Event is a progress notification for one run.
type Event struct {
	RunID   string    `json:"run_id"`
	Type    EventType `json:"type"`
	Stage   string    `json:"stage,omitempty"`
	Role    string    `json:"role,omitempty"`
	Step    int       `json:"step,omitempty"`
	Steps   int       `json:"steps,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}
