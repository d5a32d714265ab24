package watson

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNLU_Analyze(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/analyze" || r.URL.Query().Get("version") != "2021-03-25" {
			t.Errorf("unexpected request %s", r.URL)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		features, _ := body["features"].(map[string]interface{})
		for _, f := range []string{"keywords", "entities", "categories", "concepts"} {
			if _, ok := features[f]; !ok {
				t.Errorf("feature %s not requested", f)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"language": "en",
			"keywords": [{"text": "forest", "relevance": 0.97, "count": 1}],
			"entities": [],
			"concepts": [{"text": "Forest", "relevance": 0.91, "dbpedia_resource": "http://dbpedia.org/resource/Forest"}],
			"categories": [{"label": "/home and garden/gardening and landscaping", "score": 0.72}]
		}`))
	}))
	defer ts.Close()

	nlu := NewNaturalLanguageUnderstanding(ts.URL, "", ts.Client())
	results, err := nlu.Analyze(context.Background(), "a forest at dawn. ")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(results.Keywords) != 1 || *results.Keywords[0].Relevance != 0.97 {
		t.Errorf("keywords = %+v", results.Keywords)
	}
	if len(results.Categories) != 1 || *results.Categories[0].Score != 0.72 {
		t.Errorf("categories = %+v", results.Categories)
	}
}

func TestNLU_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code": 422, "error": "not enough text for language id"}`))
	}))
	defer ts.Close()

	nlu := NewNaturalLanguageUnderstanding(ts.URL, "", ts.Client())
	_, err := nlu.Analyze(context.Background(), "ok")
	if err == nil || err.Error() != "nlu returned status 422: not enough text for language id" {
		t.Fatalf("unexpected error: %v", err)
	}
}
