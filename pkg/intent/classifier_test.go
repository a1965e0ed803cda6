package intent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/geoqa/geoqa/pkg/cache"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	responses map[string]any
	err       error
}

func (s *scriptedProvider) GenerateText(ctx context.Context, profile, prompt string) (string, error) {
	return "", nil
}

func (s *scriptedProvider) GenerateJSON(ctx context.Context, profile, prompt string, target any) error {
	if s.err != nil {
		return s.err
	}
	resp, ok := s.responses[profile]
	if !ok {
		return errors.New("no scripted response for profile " + profile)
	}
	raw, _ := json.Marshal(resp)
	return json.Unmarshal(raw, target)
}

func (s *scriptedProvider) HealthCheck(ctx context.Context) error { return nil }

// countingProvider wraps scriptedProvider to track how many LLM calls a
// Classify actually issued, for cache-hit assertions.
type countingProvider struct {
	scriptedProvider
	calls int
}

func (c *countingProvider) GenerateJSON(ctx context.Context, profile, prompt string, target any) error {
	c.calls++
	return c.scriptedProvider.GenerateJSON(ctx, profile, prompt, target)
}

func TestClassifyUsesLLMWhenSuccessful(t *testing.T) {
	provider := &scriptedProvider{responses: map[string]any{
		"intent": topLevelResponse{Intent: "GEE", Confidence: 0.95, Reasoning: "mentions NDVI"},
	}}
	c := NewClassifier(provider, "intent", "intent")

	result := c.Classify(context.Background(), "NDVI for Mumbai")
	require.True(t, result.Success)
	require.Equal(t, ServiceGEE, result.ServiceType)
	require.NotEmpty(t, result.GEESubIntent)
	require.Equal(t, "ndvi", result.AnalysisType)
}

func TestClassifyFallsBackToKeywordsOnTransportError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("connection refused")}
	c := NewClassifier(provider, "intent", "intent")

	result := c.Classify(context.Background(), "NDVI vegetation health analysis over satellite imagery")
	require.True(t, result.Success)
	require.Equal(t, ServiceGEE, result.ServiceType)
}

func TestClassifyEmptyQueryReturnsSearchZeroConfidence(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("should not be called")}
	c := NewClassifier(provider, "intent", "intent")

	result := c.Classify(context.Background(), "")
	require.True(t, result.Success)
	require.Equal(t, ServiceSearch, result.ServiceType)
	require.Equal(t, 0.0, result.Confidence)
}

func TestClassifyGEEServiceAlwaysHasSubIntent(t *testing.T) {
	provider := &scriptedProvider{responses: map[string]any{
		"intent": topLevelResponse{Intent: "GEE", Confidence: 0.8, Reasoning: "geospatial"},
	}}
	c := NewClassifier(provider, "intent", "intent")

	result := c.Classify(context.Background(), "analyze this polygon")
	require.Equal(t, ServiceGEE, result.ServiceType)
	require.NotEmpty(t, result.GEESubIntent)
}

func TestClassifyNonGEEHasNoSubIntent(t *testing.T) {
	provider := &scriptedProvider{responses: map[string]any{
		"intent": topLevelResponse{Intent: "RAG", Confidence: 0.9, Reasoning: "policy question"},
	}}
	c := NewClassifier(provider, "intent", "intent")

	result := c.Classify(context.Background(), "what is the definition of this regulation")
	require.Equal(t, ServiceRAG, result.ServiceType)
	require.Empty(t, result.GEESubIntent)
	require.Equal(t, "general", result.AnalysisType)
}

func TestBlendConfidenceAgreementBlends(t *testing.T) {
	conf, _ := blendConfidence("GEE", "GEE", 0.9, 0.5)
	require.InDelta(t, 0.8*0.9+0.2*0.5, conf, 1e-9)
}

func TestBlendConfidenceDisagreementLLMWins(t *testing.T) {
	conf, reasoning := blendConfidence("GEE", "SEARCH", 0.9, 0.5)
	require.Equal(t, 0.9, conf)
	require.Contains(t, reasoning, "disagreed")
}

func TestClassifyServesRepeatQueryFromCache(t *testing.T) {
	provider := &countingProvider{scriptedProvider: scriptedProvider{responses: map[string]any{
		"intent": topLevelResponse{Intent: "SEARCH", Confidence: 0.9, Reasoning: "live data"},
	}}}
	c := NewClassifier(provider, "intent", "intent").
		WithCache(cache.AsCache(cache.NewNamedTTLCache("intent", time.Minute, 0, 16)))

	first := c.Classify(context.Background(), "latest weather in Chennai")
	require.Equal(t, ServiceSearch, first.ServiceType)
	callsAfterFirst := provider.calls
	require.Greater(t, callsAfterFirst, 0)

	second := c.Classify(context.Background(), "latest weather in Chennai")
	require.Equal(t, ServiceSearch, second.ServiceType)
	require.Equal(t, first.Confidence, second.Confidence)
	require.Equal(t, callsAfterFirst, provider.calls)
}
