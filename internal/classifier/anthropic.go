// Package classifier suggests a schema mode for an entry via the Anthropic
// messages API.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pbaille/schemadiary/internal/domain"
	"go.uber.org/zap"
)

const (
	anthropicAPI     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	DefaultModel     = "claude-sonnet-4-20250514"
)

// ErrNoAPIKey is returned by New when no key is configured.
var ErrNoAPIKey = errors.New("classifier API key not set (classifier.api_key or ANTHROPIC_API_KEY)")

// Suggestion is the classifier's pick of a mode for an entry.
type Suggestion struct {
	Mode       domain.SchemaMode `json:"mode"`
	Confidence float64           `json:"confidence"`
	Reason     string            `json:"reason"`
}

// Classifier handles mode suggestion via the Anthropic API.
type Classifier struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

type Option func(*Classifier)

// WithEndpoint points the classifier at another messages endpoint.
func WithEndpoint(url string) Option {
	return func(c *Classifier) { c.endpoint = url }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Classifier) { c.client = client }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Classifier) { c.log = log }
}

// New creates a Classifier. An empty model selects DefaultModel.
func New(apiKey, model string, opts ...Option) (*Classifier, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	c := &Classifier{
		apiKey:   apiKey,
		model:    model,
		endpoint: anthropicAPI,
		client:   &http.Client{Timeout: 60 * time.Second},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Suggest asks for the mode that best fits the entry's written answers.
// Recordings are not transcribed, so an entry with no text cannot be
// classified.
func (c *Classifier) Suggest(ctx context.Context, e *domain.Entry) (*Suggestion, error) {
	prompt, ok := buildPrompt(e)
	if !ok {
		return nil, errors.New("entry has no written answers to classify")
	}

	resp, err := c.callAPI(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}

	s, err := parseResponse(resp)
	if err != nil {
		return nil, err
	}
	c.log.Debug("mode suggested",
		zap.String("entry", e.ID),
		zap.String("mode", string(s.Mode)),
		zap.Float64("confidence", s.Confidence))
	return s, nil
}

func buildPrompt(e *domain.Entry) (string, bool) {
	var sb strings.Builder

	sb.WriteString("A person keeps a schema therapy diary. Pick the schema mode that best describes this entry. Return JSON only.\n\n")
	if e.Title != "" {
		sb.WriteString("Title: ")
		sb.WriteString(e.Title)
		sb.WriteString("\n\n")
	}

	content := e.Content()
	answered := false
	for _, slot := range domain.Slots() {
		f := content.Get(slot)
		if f == nil || f.IsAudio || strings.TrimSpace(f.Content) == "" {
			continue
		}
		answered = true
		sb.WriteString(slot.Label())
		sb.WriteString(":\n")
		sb.WriteString(f.Content)
		sb.WriteString("\n\n")
	}
	if !answered {
		return "", false
	}

	sb.WriteString("Schema modes by category:\n")
	for _, cat := range domain.Categories() {
		sb.WriteString(string(cat))
		sb.WriteString(":\n")
		for _, m := range domain.ModesIn(cat) {
			sb.WriteString("- ")
			sb.WriteString(string(m))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(`
Return a JSON object with this structure:
{"mode": "Exact Mode Name", "confidence": 0.8, "reason": "one sentence"}

Rules:
- "mode" must be copied exactly from the list above
- Confidence is 0.0-1.0 based on how certain the classification is
- The reason addresses the writer in the second person

Return ONLY the JSON, no other text.`)

	return sb.String(), true
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Classifier) callAPI(ctx context.Context, prompt string) (string, error) {
	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: 512,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response")
	}

	return apiResp.Content[0].Text, nil
}

func parseResponse(resp string) (*Suggestion, error) {
	// Models sometimes wrap JSON in a markdown fence.
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	var raw struct {
		Mode       string  `json:"mode"`
		Confidence float64 `json:"confidence"`
		Reason     string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(resp), &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w (response: %s)", err, resp)
	}

	mode, ok := domain.ParseSchemaMode(strings.TrimSpace(raw.Mode))
	if !ok {
		return nil, fmt.Errorf("suggested mode %q is not a known schema mode", raw.Mode)
	}
	conf := raw.Confidence
	if conf < 0 {
		conf = 0
	} else if conf > 1 {
		conf = 1
	}

	return &Suggestion{Mode: mode, Confidence: conf, Reason: strings.TrimSpace(raw.Reason)}, nil
}
