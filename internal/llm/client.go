// Package llm is the chat-completion collaborator behind relevance scoring,
// free-text criteria extraction and paraphrase checking. Every method
// returns an error on any failure; callers supply the deterministic
// fallback.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/grant"
)

// ErrNotConfigured is returned by every method when no API key is set.
var ErrNotConfigured = errors.New("llm: api key not configured")

const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

// Config holds the connection settings for the chat-completion endpoint.
type Config struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	http     *http.Client
	endpoint string
	model    string
	apiKey   string
	logger   *zap.Logger
}

// NewClient builds a Client. A client without an API key is usable but
// every call fails with ErrNotConfigured.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		endpoint: endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		logger:   logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("llm: decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("llm: empty completion")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

var firstInt = regexp.MustCompile(`\d+`)

const scoreSystemPrompt = `Score grant relevance to user criteria on a scale of 0-100.

Consider these factors:
- Geographic match (country/region)
- Sector/industry alignment
- Startup stage suitability
- Funding amount appropriateness
- Eligibility requirements match
- Deadline urgency (higher score for sooner deadlines)

Return only a number between 0-100.`

// Score asks the model to rate one grant against the criteria summary.
func (c *Client) Score(ctx context.Context, rec grant.RawGrantRecord, criteriaSummary string) (int, error) {
	eligibility := rec.Eligibility
	if len(eligibility) > 200 {
		eligibility = eligibility[:200]
	}
	user := fmt.Sprintf(`User criteria: %s

Grant: %s
Country: %s
Sector: %s
Amount: %s
Deadline: %s
Eligibility: %s

Score this grant's relevance (0-100):`,
		criteriaSummary, rec.Title, rec.Country, rec.Sector, rec.Amount, rec.Deadline, eligibility)

	content, err := c.complete(ctx, scoreSystemPrompt, user, 10, 0.2)
	if err != nil {
		return 0, err
	}
	match := firstInt.FindString(content)
	if match == "" {
		return 0, fmt.Errorf("llm: no score in completion %q", content)
	}
	score, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("llm: parsing score: %w", err)
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}

const extractSystemPrompt = `Extract structured startup grant search criteria from the user's message.

Identify when present:
- country/region
- sector/industry
- startup stage
- founder type
- funding amount

Rephrase as one concise grant search query. Return only the query text.`

// Extract refines a free-text request into a focused search query.
func (c *Client) Extract(ctx context.Context, freeText string) (string, error) {
	content, err := c.complete(ctx, extractSystemPrompt, freeText, 150, 0.2)
	if err != nil {
		return "", err
	}
	if content == "" {
		return "", errors.New("llm: empty extraction")
	}
	return content, nil
}

const judgeSystemPrompt = `You are a helpful grant search assistant. Create a gentle paraphrase to confirm understanding.

If the user query is clear and specific, return {"needed": false}.
If ambiguous or complex, return a paraphrase question like:
"Just to make sure I understand: you're looking for [summary], is that right?"

Only ask if genuinely needed for clarity.`

// Judge asks whether the free-text request needs a confirming paraphrase.
// Short queries are treated as unambiguous without calling the model.
func (c *Client) Judge(ctx context.Context, freeText string) (grant.ClarificationState, error) {
	if len(strings.Fields(freeText)) <= 10 {
		return grant.ClarificationState{}, nil
	}

	content, err := c.complete(ctx, judgeSystemPrompt, fmt.Sprintf("User query: %q", freeText), 150, 0.3)
	if err != nil {
		return grant.ClarificationState{}, err
	}
	if !strings.Contains(strings.ToLower(content), `needed": true`) {
		return grant.ClarificationState{}, nil
	}
	return grant.ClarificationState{
		Needed:   true,
		Question: content,
		Options:  []string{"Yes, that's correct", "Let me clarify..."},
	}, nil
}
