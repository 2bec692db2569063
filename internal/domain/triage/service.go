package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triage/intake/internal/platform/llm"
	"github.com/triage/intake/internal/platform/nlp"
)

// ErrNoPatientMessage is returned when the dialogue history carries no
// non-blank patient turn. Nothing is sent upstream in that case.
var ErrNoPatientMessage = errors.New("no patient message found in history")

type Service struct {
	llm       llm.Client
	extractor nlp.Extractor
	repo      Repository
	logger    zerolog.Logger
}

func NewService(client llm.Client, extractor nlp.Extractor, repo Repository, logger zerolog.Logger) *Service {
	return &Service{llm: client, extractor: extractor, repo: repo, logger: logger}
}

// Chat produces the next gathering-phase reply for the dialogue. Duplicate
// assistant questions are dropped from the history before the upstream
// call so the model does not repeat itself.
func (s *Service) Chat(ctx context.Context, turns []ConversationTurn) (string, error) {
	msgs, hasPatient := mapHistory(turns)
	if !hasPatient {
		return "", ErrNoPatientMessage
	}

	reply, err := s.llm.Complete(ctx, llm.Request{
		System:      chatSystemPrompt,
		Messages:    msgs,
		Temperature: 0.3,
		MaxTokens:   200,
	})
	if err != nil {
		return "", err
	}

	reply = strings.TrimSpace(reply)
	if strings.HasPrefix(strings.ToLower(reply), "as an ai") {
		if _, rest, found := strings.Cut(reply, "\n"); found {
			reply = strings.TrimSpace(rest)
		}
	}
	return reply, nil
}

// Process runs one finalization round. The model either signals that the
// dialogue should continue or returns a completed judgement, which is
// turned into a ticket and persisted with status waiting. A repeated
// sessionID yields the originally persisted record rather than a second row.
func (s *Service) Process(ctx context.Context, patientID int64, sessionID *uuid.UUID, turns []ConversationTurn) (*Result, error) {
	msgs, hasPatient := mapHistory(turns)
	if !hasPatient {
		return nil, ErrNoPatientMessage
	}

	raw, err := s.llm.Complete(ctx, llm.Request{
		System:      triageSystemPrompt,
		Messages:    msgs,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	draft, ok := decodeDraft(raw)
	if !ok || !draft.Final {
		return &Result{Continue: true}, nil
	}

	severity := NormalizeSeverity(draft.Severity)

	rec := &Record{
		PatientID:     patientID,
		Symptoms:      strings.Join(draft.Symptoms, ", "),
		Duration:      draft.Duration,
		SeverityLabel: severity,
		RiskFactors:   strings.Join(draft.RiskFactors, ", "),
		Ticket:        TicketNumber(severity, patientID),
		WaitTime:      EstimatedWait(severity),
		Status:        StatusWaiting,
		SessionID:     sessionID,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist triage record: %w", err)
	}

	return &Result{
		Ticket: Ticket{Number: rec.Ticket, EstimatedWait: rec.WaitTime},
		Summary: Summary{
			Symptoms:    draft.Symptoms,
			Duration:    draft.Duration,
			Severity:    severity,
			RiskFactors: draft.RiskFactors,
		},
	}, nil
}

// Precheck extracts symptom phrases from free text and estimates a rough
// severity level. It is a helper for the intake flow, not a medical
// decision, and degrades to sentinel phrases when extraction fails.
func (s *Service) Precheck(ctx context.Context, text string) *PrecheckResult {
	if strings.TrimSpace(text) == "" {
		return &PrecheckResult{
			Symptoms:      []string{},
			RiskFactors:   []string{},
			SeverityGuess: SeverityLow,
		}
	}

	symptoms, err := s.extractor.Extract(ctx, text)
	if err != nil {
		s.logger.Warn().Err(err).Msg("symptom extraction failed, using sentinel")
		symptoms = []string{nlp.GeneralSymptom}
	}

	return &PrecheckResult{
		Symptoms:      symptoms,
		RiskFactors:   []string{},
		SeverityGuess: ScoreSymptoms(symptoms),
	}
}

// ListRecords returns the staff queue, most recent first.
func (s *Service) ListRecords(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// UpdateStatus moves a record through the staff workflow.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("status must be %q, %q or %q", StatusWaiting, StatusInProgress, StatusDone)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// mapHistory converts client turns to model messages, dropping blank turns
// and repeated assistant questions. The second return reports whether at
// least one patient turn survived.
func mapHistory(turns []ConversationTurn) ([]llm.Message, bool) {
	msgs := make([]llm.Message, 0, len(turns))
	asked := make(map[string]bool)
	hasPatient := false

	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		if t.Role == TurnPatient {
			hasPatient = true
			msgs = append(msgs, llm.Message{Role: "user", Content: content})
			continue
		}
		if asked[content] {
			continue
		}
		asked[content] = true
		msgs = append(msgs, llm.Message{Role: "assistant", Content: content})
	}
	return msgs, hasPatient
}

// decodeDraft pulls the first balanced-brace slice out of the model output
// and decodes it. Models often wrap the JSON in prose; everything outside
// the outermost braces is discarded.
func decodeDraft(raw string) (Draft, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return Draft{}, false
	}

	var draft Draft
	if err := json.Unmarshal([]byte(raw[start:end+1]), &draft); err != nil {
		return Draft{}, false
	}
	return draft, true
}
