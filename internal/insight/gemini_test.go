package insight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"doodoologserver/internal/domain"
)

func TestGenerateParsesCandidateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Fatalf("api key not passed")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  Solid work. Hydrate anyway.  "}]}}]}`))
	}))
	defer srv.Close()

	c := &GeminiClient{APIKey: "test-key", BaseURL: srv.URL}
	got, err := c.Generate(context.Background(), domain.BristolType4, "felt great")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Solid work. Hydrate anyway." {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &GeminiClient{APIKey: "test-key", BaseURL: srv.URL}
	if _, err := c.Generate(context.Background(), domain.BristolType1, ""); err == nil {
		t.Fatalf("expected error on non-200 response")
	}
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	c := &GeminiClient{}
	if _, err := c.Generate(context.Background(), domain.BristolType1, ""); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := &GeminiClient{APIKey: "test-key", BaseURL: srv.URL}
	if _, err := c.Generate(context.Background(), domain.BristolType1, ""); err == nil {
		t.Fatalf("expected error on empty candidates")
	}
}
