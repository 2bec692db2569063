package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triage/intake/internal/platform/llm"
	"github.com/triage/intake/internal/platform/nlp"
)

type mockLLM struct {
	reply string
	err   error
	calls int
	last  llm.Request
}

func (m *mockLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	m.calls++
	m.last = req
	return m.reply, m.err
}

type mockRecordRepo struct {
	records   []*Record
	bySession map[uuid.UUID]*Record
	nextID    int64
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{bySession: make(map[uuid.UUID]*Record), nextID: 1}
}

func (m *mockRecordRepo) Create(_ context.Context, rec *Record) error {
	if rec.SessionID != nil {
		if existing, ok := m.bySession[*rec.SessionID]; ok {
			*rec = *existing
			return nil
		}
	}
	rec.ID = m.nextID
	m.nextID++
	stored := *rec
	m.records = append(m.records, &stored)
	if rec.SessionID != nil {
		m.bySession[*rec.SessionID] = &stored
	}
	return nil
}

func (m *mockRecordRepo) List(_ context.Context, limit, offset int) ([]*Record, int, error) {
	return m.records, len(m.records), nil
}

func (m *mockRecordRepo) GetByID(_ context.Context, id int64) (*Record, error) {
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *mockRecordRepo) UpdateStatus(_ context.Context, id int64, status string) error {
	for _, r := range m.records {
		if r.ID == id {
			r.Status = status
			return nil
		}
	}
	return ErrRecordNotFound
}

type stubExtractor struct {
	phrases []string
	err     error
	calls   int
}

func (s *stubExtractor) Extract(_ context.Context, _ string) ([]string, error) {
	s.calls++
	return s.phrases, s.err
}

func newTestTriageService(client llm.Client, extractor nlp.Extractor) (*Service, *mockRecordRepo) {
	repo := newMockRecordRepo()
	return NewService(client, extractor, repo, zerolog.Nop()), repo
}

func patientTurns(contents ...string) []ConversationTurn {
	turns := make([]ConversationTurn, 0, len(contents))
	for _, c := range contents {
		turns = append(turns, ConversationTurn{Role: TurnPatient, Content: c})
	}
	return turns
}

func TestProcess_RejectsHistoryWithoutPatientTurn(t *testing.T) {
	client := &mockLLM{}
	svc, _ := newTestTriageService(client, &stubExtractor{})

	cases := [][]ConversationTurn{
		nil,
		{{Role: TurnAssistant, Content: "How can I help?"}},
		{{Role: TurnPatient, Content: "   "}},
	}
	for _, turns := range cases {
		_, err := svc.Process(context.Background(), 1, nil, turns)
		if !errors.Is(err, ErrNoPatientMessage) {
			t.Errorf("expected ErrNoPatientMessage, got %v", err)
		}
	}
	if client.calls != 0 {
		t.Errorf("model called %d times for invalid histories", client.calls)
	}
}

func TestProcess_ContinueOnNonFinal(t *testing.T) {
	for _, reply := range []string{
		`{"final": false}`,
		"I need a little more information first.",
		"Sure thing: {\"final\": fal", // truncated output
	} {
		client := &mockLLM{reply: reply}
		svc, repo := newTestTriageService(client, &stubExtractor{})

		result, err := svc.Process(context.Background(), 1, nil, patientTurns("my head hurts"))
		if err != nil {
			t.Fatalf("reply %q: unexpected error: %v", reply, err)
		}
		if !result.Continue {
			t.Errorf("reply %q: expected continue", reply)
		}
		if len(repo.records) != 0 {
			t.Errorf("reply %q: nothing should be persisted", reply)
		}
	}
}

func TestProcess_FinalJudgement(t *testing.T) {
	client := &mockLLM{reply: `The assessment is complete.
{"final": true, "severity": "High", "symptoms": ["chest pain"], "duration": "2 hours", "risk_factors": ["smoker"]}`}
	svc, repo := newTestTriageService(client, &stubExtractor{})

	result, err := svc.Process(context.Background(), 42, nil, patientTurns("chest pain for two hours"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Continue {
		t.Fatal("expected a completed result")
	}
	if result.Ticket.Number != "A1042" {
		t.Errorf("ticket = %q, want A1042", result.Ticket.Number)
	}
	if result.Ticket.EstimatedWait != "5–15 minutes" {
		t.Errorf("wait = %q", result.Ticket.EstimatedWait)
	}
	if result.Summary.Severity != SeverityHigh || result.Summary.Duration != "2 hours" {
		t.Errorf("unexpected summary: %+v", result.Summary)
	}

	if len(repo.records) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(repo.records))
	}
	rec := repo.records[0]
	if rec.Status != StatusWaiting {
		t.Errorf("status = %q, want waiting", rec.Status)
	}
	if rec.Symptoms != "chest pain" || rec.RiskFactors != "smoker" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestProcess_DefaultsMissingSeverityToLow(t *testing.T) {
	client := &mockLLM{reply: `{"final": true, "symptoms": ["cough"]}`}
	svc, _ := newTestTriageService(client, &stubExtractor{})

	result, err := svc.Process(context.Background(), 7, nil, patientTurns("just a cough"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Ticket.Number != "C1007" {
		t.Errorf("ticket = %q, want C1007", result.Ticket.Number)
	}
	if result.Summary.Severity != SeverityLow {
		t.Errorf("severity = %q, want Low", result.Summary.Severity)
	}
}

func TestProcess_NormalizesSeverity(t *testing.T) {
	cases := []struct {
		name       string
		severity   string
		wantLabel  string
		wantTicket string
	}{
		{"lowercase label", "high", SeverityHigh, "A1007"},
		{"unrecognized label", "severe", SeverityLow, "C1007"},
		{"padded label", " Critical ", SeverityCritical, "P1007"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &mockLLM{reply: `{"final": true, "severity": "` + tc.severity + `", "symptoms": ["chest pain"]}`}
			svc, repo := newTestTriageService(client, &stubExtractor{})

			result, err := svc.Process(context.Background(), 7, nil, patientTurns("it hurts"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Summary.Severity != tc.wantLabel {
				t.Errorf("severity = %q, want %q", result.Summary.Severity, tc.wantLabel)
			}
			if result.Ticket.Number != tc.wantTicket {
				t.Errorf("ticket = %q, want %q", result.Ticket.Number, tc.wantTicket)
			}

			rec := repo.records[0]
			if rec.SeverityLabel != tc.wantLabel {
				t.Errorf("persisted label = %q, want %q", rec.SeverityLabel, tc.wantLabel)
			}
			switch rec.SeverityLabel {
			case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
			default:
				t.Errorf("persisted label %q is outside the severity enum", rec.SeverityLabel)
			}
		})
	}
}

func TestProcess_UpstreamErrorPropagates(t *testing.T) {
	client := &mockLLM{err: llm.ErrTimeout}
	svc, repo := newTestTriageService(client, &stubExtractor{})

	_, err := svc.Process(context.Background(), 1, nil, patientTurns("help"))
	if !errors.Is(err, llm.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if len(repo.records) != 0 {
		t.Error("nothing should be persisted on upstream failure")
	}
}

func TestProcess_SessionIdempotency(t *testing.T) {
	client := &mockLLM{reply: `{"final": true, "severity": "Medium", "symptoms": ["fever"]}`}
	svc, repo := newTestTriageService(client, &stubExtractor{})

	session := uuid.New()
	first, err := svc.Process(context.Background(), 5, &session, patientTurns("fever since yesterday"))
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	second, err := svc.Process(context.Background(), 5, &session, patientTurns("fever since yesterday"))
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if len(repo.records) != 1 {
		t.Errorf("expected one record for a repeated session, got %d", len(repo.records))
	}
	if first.Ticket.Number != second.Ticket.Number {
		t.Errorf("tickets differ: %q vs %q", first.Ticket.Number, second.Ticket.Number)
	}
}

func TestChat_DropsDuplicateAssistantQuestions(t *testing.T) {
	client := &mockLLM{reply: "How long has this been going on?"}
	svc, _ := newTestTriageService(client, &stubExtractor{})

	turns := []ConversationTurn{
		{Role: TurnPatient, Content: "my stomach hurts"},
		{Role: TurnAssistant, Content: "Where does it hurt?"},
		{Role: TurnPatient, Content: "lower right side"},
		{Role: TurnAssistant, Content: "Where does it hurt?"},
	}
	if _, err := svc.Chat(context.Background(), turns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.last.Messages) != 3 {
		t.Errorf("expected duplicate question dropped, got %d messages", len(client.last.Messages))
	}
	if client.last.Temperature != 0.3 || client.last.MaxTokens != 200 {
		t.Errorf("unexpected sampling params: %+v", client.last)
	}
}

func TestChat_StripsAIPreamble(t *testing.T) {
	client := &mockLLM{reply: "As an AI assistant I should mention\nHow long have you felt dizzy?"}
	svc, _ := newTestTriageService(client, &stubExtractor{})

	reply, err := svc.Chat(context.Background(), patientTurns("I feel dizzy"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "How long have you felt dizzy?" {
		t.Errorf("got %q", reply)
	}
}

func TestPrecheck(t *testing.T) {
	ex := &stubExtractor{phrases: []string{"chest pain"}}
	svc, _ := newTestTriageService(&mockLLM{}, ex)

	res := svc.Precheck(context.Background(), "I have chest pain")
	if res.SeverityGuess != SeverityCritical {
		t.Errorf("severity guess = %q, want Critical", res.SeverityGuess)
	}
	if len(res.Symptoms) != 1 || res.Symptoms[0] != "chest pain" {
		t.Errorf("symptoms = %v", res.Symptoms)
	}
}

func TestPrecheck_BlankInput(t *testing.T) {
	ex := &stubExtractor{}
	svc, _ := newTestTriageService(&mockLLM{}, ex)

	res := svc.Precheck(context.Background(), "   ")
	if res.SeverityGuess != SeverityLow {
		t.Errorf("severity guess = %q, want Low", res.SeverityGuess)
	}
	if len(res.Symptoms) != 0 {
		t.Errorf("symptoms = %v, want empty", res.Symptoms)
	}
	if ex.calls != 0 {
		t.Error("extractor must not run for blank input")
	}
}

func TestPrecheck_ExtractorFailureDegrades(t *testing.T) {
	ex := &stubExtractor{err: errors.New("model down")}
	svc, _ := newTestTriageService(&mockLLM{}, ex)

	res := svc.Precheck(context.Background(), "something hurts")
	if len(res.Symptoms) != 1 || res.Symptoms[0] != nlp.GeneralSymptom {
		t.Errorf("symptoms = %v, want the sentinel", res.Symptoms)
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestTriageService(&mockLLM{}, &stubExtractor{})
	if err := svc.UpdateStatus(context.Background(), 1, "archived"); err == nil {
		t.Error("expected validation error")
	}
}
