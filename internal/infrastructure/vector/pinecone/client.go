package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
)

// Client is a plain-HTTP client for a Pinecone serverless index. Record
// metadata is the denormalized authorization copy; the reindexer is the only
// writer, so every upsert carries fresh relational state.
type Client struct {
	baseURL    string
	apiKey     string
	namespace  string
	httpClient *http.Client
}

func New(indexHost, apiKey, namespace string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(indexHost, "/"),
		apiKey:     apiKey,
		namespace:  namespace,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	type vector struct {
		ID       string         `json:"id"`
		Values   []float32      `json:"values"`
		Metadata map[string]any `json:"metadata"`
	}

	vectors := make([]vector, 0, len(records))
	for _, r := range records {
		vectors = append(vectors, vector{
			ID:     r.ID,
			Values: r.Vector,
			Metadata: map[string]any{
				"client_note_id":   r.Metadata.ClientNoteID,
				"client_id":        r.Metadata.ClientID,
				"client_name":      r.Metadata.ClientName,
				"company":          r.Metadata.Company,
				"content":          r.Metadata.Content,
				"assigned_user_id": r.Metadata.AssignedUserID,
				"note_type":        r.Metadata.NoteType,
			},
		})
	}

	reqBody := map[string]any{"vectors": vectors}
	if c.namespace != "" {
		reqBody["namespace"] = c.namespace
	}
	return c.postJSON(ctx, "/vectors/upsert", reqBody, nil, "upsert")
}

func (c *Client) Query(
	ctx context.Context,
	queryVector []float32,
	topK int,
	filter domain.VectorFilter,
	includeMetadata bool,
) ([]domain.VectorMatch, error) {
	reqBody := map[string]any{
		"vector":          queryVector,
		"topK":            topK,
		"includeMetadata": includeMetadata,
	}
	if len(filter) > 0 {
		reqBody["filter"] = filter
	}
	if c.namespace != "" {
		reqBody["namespace"] = c.namespace
	}

	var response struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := c.postJSON(ctx, "/query", reqBody, &response, "query"); err != nil {
		return nil, err
	}

	out := make([]domain.VectorMatch, 0, len(response.Matches))
	for _, m := range response.Matches {
		out = append(out, domain.VectorMatch{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: parseMetadata(m.Metadata),
		})
	}
	return out, nil
}

func (c *Client) DeleteByFilter(ctx context.Context, filter domain.VectorFilter) error {
	reqBody := map[string]any{"filter": filter}
	if c.namespace != "" {
		reqBody["namespace"] = c.namespace
	}
	return c.postJSON(ctx, "/vectors/delete", reqBody, nil, "delete")
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody any, out any, operation string) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("pinecone %s status: %s: %s", operation, resp.Status, msg)
		}
		return fmt.Errorf("pinecone %s status: %s", operation, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// parseMetadata tolerates missing or mistyped fields; absent identifiers
// stay zero so the retrieval engine can fail closed on them.
func parseMetadata(payload map[string]any) domain.EmbeddingMetadata {
	return domain.EmbeddingMetadata{
		ClientNoteID:   intField(payload, "client_note_id"),
		ClientID:       intField(payload, "client_id"),
		ClientName:     stringField(payload, "client_name"),
		Company:        stringField(payload, "company"),
		Content:        stringField(payload, "content"),
		AssignedUserID: intField(payload, "assigned_user_id"),
		NoteType:       stringField(payload, "note_type"),
	}
}

func intField(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}

func stringField(payload map[string]any, key string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}
