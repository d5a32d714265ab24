package watson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/visually/visually-api/internal/domain/entities"
)

const DefaultNLUVersion = "2021-03-25"

// NaturalLanguageUnderstanding calls the Watson NLU analyze endpoint
type NaturalLanguageUnderstanding struct {
	serviceURL string
	version    string
	client     *http.Client
}

// NewNaturalLanguageUnderstanding creates an analyser. client must add the
// IAM bearer token, see NewHTTPClient.
func NewNaturalLanguageUnderstanding(serviceURL, version string, client *http.Client) *NaturalLanguageUnderstanding {
	if version == "" {
		version = DefaultNLUVersion
	}
	return &NaturalLanguageUnderstanding{
		serviceURL: strings.TrimSuffix(serviceURL, "/"),
		version:    version,
		client:     client,
	}
}

type analyzeRequest struct {
	Text     string          `json:"text"`
	Features analyzeFeatures `json:"features"`
}

type analyzeFeatures struct {
	Keywords   struct{} `json:"keywords"`
	Entities   struct{} `json:"entities"`
	Categories struct{} `json:"categories"`
	Concepts   struct{} `json:"concepts"`
}

type apiError struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// Analyze extracts keywords, entities, categories and concepts from text
func (n *NaturalLanguageUnderstanding) Analyze(ctx context.Context, text string) (*entities.AnalysisResults, error) {
	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return nil, err
	}

	endpoint := n.serviceURL + "/v1/analyze?version=" + url.QueryEscape(n.version)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nlu request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("nlu returned status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("nlu returned status %d", resp.StatusCode)
	}

	var results entities.AnalysisResults
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode nlu response: %w", err)
	}
	return &results, nil
}
