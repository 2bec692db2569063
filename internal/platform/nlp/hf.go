package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HFConfig configures the hosted token-classification extractor.
type HFConfig struct {
	BaseURL string
	APIKey  string
	// ClinicalModel is preferred; GeneralModel is the fallback when the
	// clinical model is unavailable.
	ClinicalModel string
	GeneralModel  string
	Timeout       time.Duration
}

// HFExtractor extracts symptom phrases with a hosted named-entity
// recognition model (Hugging Face inference API). The clinical model is
// tried first; if it is unavailable the extractor switches to the general
// model for the remainder of the process and logs the selection.
type HFExtractor struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger

	mu           sync.Mutex
	model        string
	generalModel string
	fellBack     bool
}

// NewHFExtractor constructs an extractor preferring the clinical model.
func NewHFExtractor(cfg HFConfig, logger zerolog.Logger) *HFExtractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HFExtractor{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		client:       &http.Client{Timeout: timeout},
		logger:       logger,
		model:        cfg.ClinicalModel,
		generalModel: cfg.GeneralModel,
	}
}

type entity struct {
	EntityGroup string  `json:"entity_group"`
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
}

// Extract implements Extractor.
func (e *HFExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{UnknownSymptom}, nil
	}

	entities, err := e.classify(ctx, e.currentModel(), text)
	if err != nil {
		if !e.switchToGeneral(err) {
			return nil, err
		}
		entities, err = e.classify(ctx, e.currentModel(), text)
		if err != nil {
			return nil, err
		}
	}

	return cleanPhrases(mergeEntities(entities)), nil
}

func (e *HFExtractor) currentModel() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model
}

// switchToGeneral flips the extractor to the general model once. Returns
// false if the fallback was already taken or none is configured.
func (e *HFExtractor) switchToGeneral(cause error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fellBack || e.generalModel == "" || e.model == e.generalModel {
		return false
	}
	e.logger.Warn().
		Err(cause).
		Str("clinical_model", e.model).
		Str("general_model", e.generalModel).
		Msg("clinical NER model unavailable, falling back to general model")
	e.model = e.generalModel
	e.fellBack = true
	return true
}

func (e *HFExtractor) classify(ctx context.Context, model, text string) ([]entity, error) {
	body, err := json.Marshal(map[string]interface{}{
		"inputs":  text,
		"options": map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", e.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call NER model %s: %w", model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("NER model %s returned status %d: %s", model, resp.StatusCode, snippet)
	}

	var entities []entity
	if err := json.NewDecoder(resp.Body).Decode(&entities); err != nil {
		return nil, fmt.Errorf("decode NER response: %w", err)
	}
	return entities, nil
}

// mergeEntities concatenates consecutive spans that share an entity group,
// mirroring how the model tokenizes multi-word symptoms ("chest" + "pain").
func mergeEntities(entities []entity) []string {
	var merged []string
	var words []string
	var group string

	flush := func() {
		if len(words) > 0 {
			merged = append(merged, strings.Join(words, " "))
			words = nil
		}
	}

	for _, ent := range entities {
		word := strings.ReplaceAll(ent.Word, "##", "")
		if ent.EntityGroup != "" && len(words) > 0 && ent.EntityGroup != group {
			flush()
		}
		group = ent.EntityGroup
		words = append(words, word)
	}
	flush()

	return merged
}
