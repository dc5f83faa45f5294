package nl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

// ModelClient talks to an Ollama-style /api/generate endpoint. It
// implements both IntentClassifier and BodyGenerator. Every call
// carries a bounded timeout so a stuck model never blocks a worker.
type ModelClient struct {
	url     string
	model   string
	client  *http.Client
	timeout time.Duration
}

func NewModelClient(url, model string, timeout time.Duration) *ModelClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ModelClient{
		url:     url,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (c *ModelClient) generate(ctx context.Context, prompt string, deterministic bool) (string, error) {
	req := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}
	if deterministic {
		req.Options = map[string]any{"temperature": 0}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExternalUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: generate returned status %d", domain.ErrExternalUnavailable, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode generate response: %v", domain.ErrExternalUnavailable, err)
	}
	return strings.TrimSpace(out.Response), nil
}

// ClassifyIntent asks the model for one of APPROVE/REJECT/OTHER and
// maps anything else, including errors upstream, to UNCLEAR.
func (c *ModelClient) ClassifyIntent(ctx context.Context, body string) (domain.ReplyIntent, error) {
	if len(body) > 500 {
		body = body[:500]
	}
	prompt := classifyPrompt(body)

	raw, err := c.generate(ctx, prompt, true)
	if err != nil {
		return domain.IntentUnclear, err
	}

	label := strings.ToUpper(raw)
	switch {
	case strings.Contains(label, "APPROVE"):
		return domain.IntentApprove, nil
	case strings.Contains(label, "REJECT"):
		return domain.IntentReject, nil
	default:
		return domain.IntentUnclear, nil
	}
}

// GenerateBody produces a correspondence body for the given facts and
// strips any closer or signature the model added anyway.
func (c *ModelClient) GenerateBody(ctx context.Context, f Facts) (string, error) {
	body, err := c.generate(ctx, bodyPrompt(f), false)
	if err != nil {
		return "", err
	}
	body = scrubBody(body, f.Supplier)
	if body == "" {
		return "", fmt.Errorf("%w: model returned empty body", domain.ErrExternalUnavailable)
	}
	return body, nil
}

var closers = []string{"best regards", "warm regards", "sincerely", "kind regards", "regards", "supplier:"}

// scrubBody removes model-added signatures; the dispatcher appends the
// configured signature itself.
func scrubBody(body, supplier string) string {
	for _, closer := range closers {
		idx := strings.LastIndex(strings.ToLower(body), closer)
		if idx != -1 {
			body = strings.TrimSpace(body[:idx])
		}
	}
	replacements := map[string]string{
		"[Your Name]":     supplier + " Sales Team",
		"[Company Name]":  supplier,
		"[Supplier Name]": supplier,
		"[Date]":          time.Now().Format("2006-01-02"),
	}
	for key, val := range replacements {
		body = strings.ReplaceAll(body, key, val)
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), ",")
	return strings.TrimSpace(body)
}
