package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

const defaultMaxPageChars = 12000

// LLMExtractor implements FieldExtractor using an LLM backend.
type LLMExtractor struct {
	backend      LLMBackend
	temperature  float64
	maxTokens    int
	maxPageChars int
}

// LLMExtractorOption configures the LLMExtractor.
type LLMExtractorOption func(*LLMExtractor)

// WithTemperature sets the LLM temperature for extraction.
func WithTemperature(t float64) LLMExtractorOption {
	return func(e *LLMExtractor) {
		e.temperature = t
	}
}

// WithMaxTokens sets the max tokens for LLM responses.
func WithMaxTokens(n int) LLMExtractorOption {
	return func(e *LLMExtractor) {
		e.maxTokens = n
	}
}

// WithMaxPageChars truncates page text sent to the LLM.
func WithMaxPageChars(n int) LLMExtractorOption {
	return func(e *LLMExtractor) {
		if n > 0 {
			e.maxPageChars = n
		}
	}
}

// NewLLMExtractor creates a new LLMExtractor.
func NewLLMExtractor(backend LLMBackend, opts ...LLMExtractorOption) *LLMExtractor {
	e := &LLMExtractor{
		backend:      backend,
		temperature:  0.1,
		maxTokens:    512,
		maxPageChars: defaultMaxPageChars,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backend returns the name of the underlying backend.
func (e *LLMExtractor) Backend() string {
	return e.backend.Name()
}

// ExtractFields asks the LLM for fields and coerces its answer.
func (e *LLMExtractor) ExtractFields(
	ctx context.Context,
	page string,
	fields []domain.CustomField,
) (map[string]any, error) {
	if len(fields) == 0 {
		return map[string]any{}, nil
	}

	prompt, err := RenderFieldsPrompt(truncate(page, e.maxPageChars), fields)
	if err != nil {
		return nil, fmt.Errorf("rendering fields prompt: %w", err)
	}

	resp, err := e.backend.Generate(ctx, GenerateRequest{
		Prompt:      prompt,
		SystemMsg:   systemMsg,
		Format:      FormatJSON,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("calling LLM for extraction: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Content)), &raw); err != nil {
		return nil, fmt.Errorf("parsing LLM JSON response: %w", err)
	}

	values, err := CoerceFields(raw, fields)
	if err != nil {
		return nil, fmt.Errorf("validating extraction: %w", err)
	}
	return values, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// stripCodeFence removes a Markdown code fence some models wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
