package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestGeminiProvider(serverURL string) *GeminiProvider {
	provider := NewGeminiProvider("test-key", "test-model")
	provider.endpoint = serverURL
	return provider
}

func geminiCandidateResponse(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
}

func TestGeminiSummarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got: %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "test-model:generateContent") {
			t.Errorf("Expected model in path, got: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("Expected API key in query, got: %s", r.URL.Query().Get("key"))
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 {
			t.Errorf("Expected single content part, got: %+v", req)
		}

		fmt.Fprint(w, geminiCandidateResponse("  The summary.  "))
	}))
	defer server.Close()

	provider := newTestGeminiProvider(server.URL)
	text, err := provider.Summarize(context.Background(), "Summarize this.")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if text != "The summary." {
		t.Errorf("Expected trimmed summary text, got: %q", text)
	}
}

func TestGeminiSummarizeRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := newTestGeminiProvider(server.URL)
	_, err := provider.Summarize(context.Background(), "Summarize this.")

	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got: %v", err)
	}
}

func TestGeminiSummarizeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "invalid request"}}`)
	}))
	defer server.Close()

	provider := newTestGeminiProvider(server.URL)
	_, err := provider.Summarize(context.Background(), "Summarize this.")

	if err == nil {
		t.Fatal("Expected error for 400 response")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Error("Expected a non-retryable error")
	}
	if !strings.Contains(err.Error(), "invalid request") {
		t.Errorf("Expected error to carry response excerpt, got: %v", err)
	}
}

func TestGeminiSummarizeEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	provider := newTestGeminiProvider(server.URL)
	_, err := provider.Summarize(context.Background(), "Summarize this.")

	if err == nil {
		t.Error("Expected error for response without candidates")
	}
}

func TestGeminiSummarizeMissingKey(t *testing.T) {
	provider := NewGeminiProvider("", "test-model")

	if _, err := provider.Summarize(context.Background(), "Summarize this."); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestNewProviderSelection(t *testing.T) {
	provider, err := NewProvider("gemini-key", "gemini-model", "cohere-key", "cohere-model")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.HasPrefix(provider.Name(), "gemini/") {
		t.Errorf("Expected Gemini preferred, got: %s", provider.Name())
	}

	provider, err = NewProvider("", "gemini-model", "cohere-key", "cohere-model")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.HasPrefix(provider.Name(), "cohere/") {
		t.Errorf("Expected Cohere fallback, got: %s", provider.Name())
	}

	if _, err := NewProvider("", "", "", ""); err == nil {
		t.Error("Expected error when no provider is configured")
	}
}
