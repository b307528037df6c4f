package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
)

func TestEmbedReturnsVectorPerInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "text-embedding-3-small" {
			t.Fatalf("unexpected model %q", req.Model)
		}
		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"embedding": []float32{0.1, 0.2}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "sk-test", Options{EmbedRatePerSecond: 1000}))
	vectors, err := embedder.Embed(context.Background(), []string{"first note", "second note"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
}

func TestEmbedRejectsCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0.1}}},
		})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "sk-test", Options{EmbedRatePerSecond: 1000}))
	if _, err := embedder.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatalf("expected count mismatch error")
	}
}

func TestGenerateAnswerGroundsOnContext(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "  John raised pricing concerns.  "}},
			},
		})
	}))
	defer server.Close()

	generator := NewGenerator(New(server.URL, "sk-test", Options{}))
	answer, err := generator.GenerateAnswer(context.Background(), "What concerns?", []domain.RetrievedBlock{
		{ClientNoteID: 1, Content: "pricing structure concerns", Similarity: 0.82},
	})
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if answer != "John raised pricing concerns." {
		t.Fatalf("expected trimmed answer, got %q", answer)
	}

	if captured.Model != "gpt-4o-mini" || captured.Temperature != 0.7 || captured.MaxTokens != 1000 {
		t.Fatalf("unexpected generation parameters: %+v", captured)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("expected system+user messages, got %+v", captured.Messages)
	}
	if !strings.Contains(captured.Messages[0].Content, "pricing structure concerns") {
		t.Fatalf("system prompt missing retrieved context")
	}
	if !strings.Contains(captured.Messages[0].Content, "Similarity: 0.820") {
		t.Fatalf("system prompt missing similarity annotation")
	}
}

func TestGenerateAnswerEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	generator := NewGenerator(New(server.URL, "sk-test", Options{}))
	if _, err := generator.GenerateAnswer(context.Background(), "q", nil); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
