package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/geoqa/geoqa/pkg/core"
)

// OpenRouterClient implements Provider against OpenRouter's OpenAI-compatible
// chat-completions endpoint. Wire format is grounded on phileasgo's
// pkg/llm/openai/client.go; outbound requests go through osmmcp's
// core.WithRetryFactory so they get the same backoff, tracing, and
// ErrBackendUnavailable/ErrTimeout mapping as every other external call.
type OpenRouterClient struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	mu       sync.RWMutex
	profiles map[string]string
	limiters *core.Limiters
}

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// NewOpenRouterClient builds a client. profiles maps a logical use (e.g.
// "intent", "ner") to a concrete OpenRouter model id; SPEC_FULL.md's
// OPENROUTER_INTENT_MODEL env var is one entry in this map.
func NewOpenRouterClient(apiKey string, profiles map[string]string) *OpenRouterClient {
	return &OpenRouterClient{
		apiKey:   apiKey,
		baseURL:  defaultOpenRouterBaseURL,
		client:   core.DefaultClient,
		profiles: profiles,
	}
}

// WithLimiters attaches the shared per-endpoint rate limiters; every
// chat-completions call waits on the "llm" bucket before going out.
func (c *OpenRouterClient) WithLimiters(l *core.Limiters) *OpenRouterClient {
	c.limiters = l
	return c
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float32         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *OpenRouterClient) resolveModel(profile string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if model, ok := c.profiles[profile]; ok && model != "" {
		return model, nil
	}
	if model, ok := c.profiles["default"]; ok && model != "" {
		return model, nil
	}
	return "", core.NewError(core.ErrIntentUnavailable, fmt.Sprintf("no model configured for llm profile %q", profile))
}

func (c *OpenRouterClient) GenerateText(ctx context.Context, profile, prompt string) (string, error) {
	model, err := c.resolveModel(profile)
	if err != nil {
		return "", err
	}

	req := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	}
	return c.execute(ctx, req)
}

func (c *OpenRouterClient) GenerateJSON(ctx context.Context, profile, prompt string, target any) error {
	model, err := c.resolveModel(profile)
	if err != nil {
		return err
	}

	if !strings.Contains(strings.ToLower(prompt), "json") {
		prompt += " Respond only with JSON."
	}

	req := chatRequest{
		Model:          model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    0.0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	raw, err := c.execute(ctx, req)
	if err != nil {
		return err
	}

	raw = CleanJSONBlock(raw)
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return core.NewError(core.ErrProcessing, "failed to unmarshal llm json response").
			WithGuidance(err.Error())
	}
	return nil
}

func (c *OpenRouterClient) HealthCheck(ctx context.Context) error {
	if c.apiKey == "" {
		return core.NewError(core.ErrIntentUnavailable, "OPENROUTER_API_KEY is not configured")
	}
	return nil
}

func (c *OpenRouterClient) execute(ctx context.Context, oreq chatRequest) (string, error) {
	if c.apiKey == "" {
		return "", core.NewError(core.ErrIntentUnavailable, "OPENROUTER_API_KEY is not configured")
	}

	if c.limiters != nil {
		if err := c.limiters.Wait(ctx, "llm"); err != nil {
			return "", core.NewError(core.ErrTimeout, "request cancelled while waiting for llm rate limit")
		}
	}

	body, err := json.Marshal(oreq)
	if err != nil {
		return "", core.NewError(core.ErrProcessing, "failed to marshal llm request")
	}

	factory := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := core.WithRetryFactory(ctx, factory, c.client, core.DefaultRetryOptions)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var oresp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oresp); err != nil {
		return "", core.NewError(core.ErrIntentUnavailable, "failed to decode llm response")
	}

	if oresp.Error != nil {
		return "", core.NewError(core.ErrIntentUnavailable, oresp.Error.Message)
	}
	if len(oresp.Choices) == 0 {
		return "", core.NewError(core.ErrIntentUnavailable, "llm returned no choices")
	}

	return oresp.Choices[0].Message.Content, nil
}
