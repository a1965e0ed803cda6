package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/geoqa/geoqa/pkg/core"
)

// TavilyClient implements WebSearch against Tavily's /search endpoint, per
// spec §6's "Canonical HTTP POST with JSON body and bearer-style API key".
// Wire shape is grounded on original_source's tavily_client.py payload;
// outbound calls go through core.WithRetryFactory like every other external
// collaborator in this module, rather than the original's raw aiohttp call.
type TavilyClient struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	limiters *core.Limiters
}

const defaultTavilyBaseURL = "https://api.tavily.com"

// tavilySearchDeadline is the per-query deadline from spec §4.5 step 2.
const tavilySearchDeadline = 10 * time.Second

func NewTavilyClient(apiKey string) *TavilyClient {
	return &TavilyClient{apiKey: apiKey, baseURL: defaultTavilyBaseURL, client: core.DefaultClient}
}

// WithLimiters attaches the shared per-endpoint rate limiters; each search
// call waits on the "search" bucket so the fan-out in Synthesize can't
// exceed the configured Tavily request rate.
func (c *TavilyClient) WithLimiters(l *core.Limiters) *TavilyClient {
	c.limiters = l
	return c
}

type tavilyRequest struct {
	APIKey          string   `json:"api_key"`
	Query           string   `json:"query"`
	SearchDepth     string   `json:"search_depth"`
	IncludeAnswer   bool     `json:"include_answer"`
	IncludeImages   bool     `json:"include_images"`
	MaxResults      int      `json:"max_results"`
	IncludeDomains  []string `json:"include_domains,omitempty"`
	ExcludeDomains  []string `json:"exclude_domains,omitempty"`
}

type tavilyResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date,omitempty"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// Search implements WebSearch. A missing API key returns ErrBackendUnavailable
// so the dispatcher's fallback logic treats an unconfigured search backend
// the same way as a down one, rather than a distinct error class.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int, includeDomains, excludeDomains []string, depth SearchDepth) ([]Result, error) {
	if c.apiKey == "" {
		return nil, core.NewError(core.ErrBackendUnavailable, "TAVILY_API_KEY is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, tavilySearchDeadline)
	defer cancel()

	if c.limiters != nil {
		if err := c.limiters.Wait(ctx, "search"); err != nil {
			return nil, core.NewError(core.ErrTimeout, "request cancelled while waiting for search rate limit")
		}
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:         c.apiKey,
		Query:          query,
		SearchDepth:    string(depth),
		IncludeAnswer:  true,
		IncludeImages:  false,
		MaxResults:     maxResults,
		IncludeDomains: includeDomains,
		ExcludeDomains: excludeDomains,
	})
	if err != nil {
		return nil, core.NewError(core.ErrProcessing, "failed to marshal tavily request")
	}

	factory := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	}

	resp, err := core.WithRetryFactory(ctx, factory, c.client, core.DefaultRetryOptions)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tresp tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tresp); err != nil {
		return nil, core.NewError(core.ErrBackendUnavailable, "failed to decode tavily response")
	}

	results := make([]Result, 0, len(tresp.Results))
	for _, r := range tresp.Results {
		published, _ := time.Parse("2006-01-02", r.PublishedDate)
		results = append(results, Result{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			Score:         r.Score,
			PublishedDate: published,
		})
	}
	return results, nil
}
