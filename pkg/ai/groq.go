package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/pkg/config"
)

const analysisPrompt = `Analyze the sentence below for a stock-footage search engine.
Respond with a JSON object only, shaped like:
{"language":"en",
 "keywords":[{"text":"...","relevance":0.0}],
 "entities":[{"type":"Location","text":"...","relevance":0.0}],
 "concepts":[{"text":"...","relevance":0.0}],
 "categories":[{"label":"/top/sub","score":0.0}]}
Relevance and score are between 0 and 1. Prefer concrete, filmable subjects.

Sentence: %s`

// GroqClient analyses text with a Groq-hosted LLM
type GroqClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewGroqClient creates a Groq client using values from the provided config
func NewGroqClient(cfg *config.GroqConfig, logger *zap.Logger) *GroqClient {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.groq.com"
	}
	model := cfg.Model
	if model == "" {
		model = "llama-3.1-70b-versatile"
	}

	return &GroqClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(base, "/"),
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// ChatMessage is one message of a chat completion
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat constrains the completion output
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []ChatMessage   `json:"messages,omitempty"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze asks the model for keywords, entities, concepts and categories
func (g *GroqClient) Analyze(ctx context.Context, text string) (*entities.AnalysisResults, error) {
	content, err := g.complete(ctx, fmt.Sprintf(analysisPrompt, strings.TrimSpace(text)))
	if err != nil {
		return nil, err
	}

	var results entities.AnalysisResults
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &results); err != nil {
		if g.logger != nil {
			g.logger.Warn("⚠️ Unparseable analysis from groq", zap.String("content", content))
		}
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	return &results, nil
}

func (g *GroqClient) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := ChatRequest{
		Model:          g.model,
		Messages:       []ChatMessage{{Role: "user", Content: prompt}},
		Temperature:    0,
		MaxTokens:      1024,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := g.baseURL + "/openai/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
		return "", fmt.Errorf("groq returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty response from groq")
	}
	return cr.Choices[0].Message.Content, nil
}

// stripCodeFence removes a ```json fence some models wrap output in
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
