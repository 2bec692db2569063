package triage

import (
	"time"

	"github.com/google/uuid"
)

// Conversation roles as the client sends them. Anything that is not a
// patient turn is treated as an assistant turn.
const (
	TurnPatient   = "patient"
	TurnAssistant = "assistant"
)

// Record statuses for the staff queue.
const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
)

// ConversationTurn is one message of the intake dialogue.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Draft is the structured judgement the model returns once it considers
// the dialogue complete. Until Final is true only Final is meaningful.
type Draft struct {
	Final       bool     `json:"final"`
	Severity    string   `json:"severity"`
	Symptoms    []string `json:"symptoms"`
	Duration    string   `json:"duration"`
	RiskFactors []string `json:"risk_factors"`
}

// Ticket is the queue assignment handed to the patient.
type Ticket struct {
	Number        string `json:"number"`
	EstimatedWait string `json:"estimatedWait"`
}

// Summary is the clinical digest attached to a completed triage.
type Summary struct {
	Symptoms    []string `json:"symptoms"`
	Duration    string   `json:"duration"`
	Severity    string   `json:"severity"`
	RiskFactors []string `json:"risk_factors"`
}

// Result is what Process returns. Continue true means the dialogue is not
// finished and the client should keep chatting.
type Result struct {
	Continue bool
	Ticket   Ticket
	Summary  Summary
}

// Record is a persisted triage outcome. Symptoms and risk factors are
// stored comma-joined, matching how the queue consumes them.
type Record struct {
	ID            int64      `json:"id"`
	PatientID     int64      `json:"patient_id"`
	Symptoms      string     `json:"symptoms"`
	Duration      string     `json:"duration"`
	SeverityLabel string     `json:"severity"`
	RiskFactors   string     `json:"risk_factors"`
	Ticket        string     `json:"ticket"`
	WaitTime      string     `json:"wait_time"`
	Status        string     `json:"status"`
	SessionID     *uuid.UUID `json:"session_id,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// PrecheckResult is the heuristic pre-classification returned before the
// model finalizes triage.
type PrecheckResult struct {
	Symptoms      []string `json:"symptoms"`
	Duration      string   `json:"duration"`
	RiskFactors   []string `json:"risk_factors"`
	SeverityGuess string   `json:"severity_guess"`
}

// ValidStatus reports whether s is a status the queue accepts.
func ValidStatus(s string) bool {
	return s == StatusWaiting || s == StatusInProgress || s == StatusDone
}
