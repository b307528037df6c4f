package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
)

func TestUpsertSendsDenormalizedMetadata(t *testing.T) {
	var captured struct {
		Vectors []struct {
			ID       string         `json:"id"`
			Values   []float32      `json:"values"`
			Metadata map[string]any `json:"metadata"`
		} `json:"vectors"`
		Namespace string `json:"namespace"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vectors/upsert" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Api-Key"); got != "pc-key" {
			t.Fatalf("expected Api-Key header, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode upsert: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, "pc-key", "sales")
	err := client.Upsert(context.Background(), []domain.EmbeddingRecord{{
		ID:     "client_note_1",
		Vector: []float32{0.1, 0.2},
		Metadata: domain.EmbeddingMetadata{
			ClientNoteID:   1,
			ClientID:       1,
			ClientName:     "John Peterson",
			Company:        "Tech Corp",
			Content:        "pricing concerns",
			AssignedUserID: 1,
			NoteType:       "concern",
		},
	}})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if captured.Namespace != "sales" {
		t.Fatalf("expected namespace sales, got %q", captured.Namespace)
	}
	if len(captured.Vectors) != 1 || captured.Vectors[0].ID != "client_note_1" {
		t.Fatalf("unexpected vectors: %+v", captured.Vectors)
	}
	meta := captured.Vectors[0].Metadata
	if meta["client_id"] != float64(1) || meta["client_name"] != "John Peterson" {
		t.Fatalf("metadata missing authorization fields: %v", meta)
	}
}

func TestQueryParsesMatchesAndToleratesMissingMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["topK"] != float64(20) {
			t.Fatalf("expected topK=20, got %v", req["topK"])
		}
		if req["includeMetadata"] != true {
			t.Fatalf("expected includeMetadata, got %v", req["includeMetadata"])
		}
		if _, ok := req["filter"]; !ok {
			t.Fatalf("expected filter in query request")
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{
					"id":    "client_note_1",
					"score": 0.82,
					"metadata": map[string]any{
						"client_note_id": 1,
						"client_id":      1,
						"client_name":    "John Peterson",
						"company":        "Tech Corp",
						"content":        "pricing concerns",
					},
				},
				{
					"id":    "client_note_9",
					"score": 0.91,
					// no metadata at all
				},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "pc-key", "")
	matches, err := client.Query(context.Background(), []float32{0.1}, 20, domain.TrivialNoteFilter(), true)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Metadata.ClientID != 1 || matches[0].Metadata.ClientName != "John Peterson" {
		t.Fatalf("unexpected metadata: %+v", matches[0].Metadata)
	}
	if matches[1].Metadata.ClientID != 0 {
		t.Fatalf("missing metadata must parse as zero client id, got %d", matches[1].Metadata.ClientID)
	}
}

func TestDeleteByFilterSendsNoteScope(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vectors/delete" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, "pc-key", "")
	if err := client.DeleteByFilter(context.Background(), domain.NoteFilter(6)); err != nil {
		t.Fatalf("DeleteByFilter() error = %v", err)
	}
	filter, ok := captured["filter"].(map[string]any)
	if !ok {
		t.Fatalf("expected filter object, got %v", captured)
	}
	scope, ok := filter["client_note_id"].(map[string]any)
	if !ok || scope["$eq"] != float64(6) {
		t.Fatalf("expected note-scoped delete, got %v", filter)
	}
}

func TestQuerySurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "index unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "pc-key", "")
	if _, err := client.Query(context.Background(), []float32{0.1}, 20, nil, true); err == nil {
		t.Fatalf("expected error on 503")
	}
}
