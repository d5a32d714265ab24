package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/visually/visually-api/pkg/config"
)

func groqServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Model != "test-model" || !strings.Contains(req.Messages[0].Content, "a forest at dawn") {
			t.Errorf("request = %+v", req)
		}
		w.WriteHeader(status)
		if status >= 400 {
			w.Write([]byte(content))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": content}}},
		})
	}))
}

func TestGroqAnalyze(t *testing.T) {
	content := "```json\n" + `{"language":"en","keywords":[{"text":"forest","relevance":0.95}],
		"categories":[{"label":"/nature/forests","score":0.8}]}` + "\n```"
	ts := groqServer(t, http.StatusOK, content)
	defer ts.Close()

	client := NewGroqClient(&config.GroqConfig{APIKey: "test-key", BaseURL: ts.URL, Model: "test-model"}, nil)
	results, err := client.Analyze(context.Background(), "a forest at dawn. ")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(results.Keywords) != 1 || results.Keywords[0].Text != "forest" || *results.Keywords[0].Relevance != 0.95 {
		t.Errorf("keywords = %+v", results.Keywords)
	}
	if len(results.Categories) != 1 || *results.Categories[0].Score != 0.8 {
		t.Errorf("categories = %+v", results.Categories)
	}
}

func TestGroqAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
		want    string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":"rate limited"}`, "groq returned status 429"},
		{"not json", http.StatusOK, "I cannot help with that", "failed to parse analysis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := groqServer(t, tt.status, tt.content)
			defer ts.Close()

			client := NewGroqClient(&config.GroqConfig{APIKey: "test-key", BaseURL: ts.URL, Model: "test-model"}, nil)
			_, err := client.Analyze(context.Background(), "a forest at dawn. ")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	for in, want := range map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
	} {
		if got := stripCodeFence(in); got != want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
