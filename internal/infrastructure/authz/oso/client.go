package oso

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/eaegeea/rag-chatbot/internal/core/ports"
	"github.com/eaegeea/rag-chatbot/internal/infrastructure/resilience"
)

// DefaultBatchSize caps concurrent outstanding authorization requests.
const DefaultBatchSize = 10

// Client talks to an Oso-Cloud-style policy decision service. Decision calls
// are read-only; transport failures at the batch level fail closed (treated
// as "not authorized") instead of propagating into aggregating callers.
type Client struct {
	baseURL    string
	apiKey     string
	batchSize  int
	httpClient *http.Client
	executor   *resilience.Executor
	logger     *slog.Logger
}

type Options struct {
	BatchSize          int
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
	Logger             *slog.Logger
}

func New(baseURL, apiKey string, options Options) *Client {
	batchSize := options.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		batchSize:  batchSize,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
		logger:     logger,
	}
}

// Authorize answers allowed(actor, action, resource) against the policy
// service. Errors are returned so AuthorizeBatch can convert them into the
// unauthorized sentinel per resource.
func (c *Client) Authorize(ctx context.Context, actor ports.Actor, action string, resource ports.Resource) (bool, error) {
	reqBody := map[string]any{
		"actor":    actor,
		"action":   action,
		"resource": resource,
	}
	var response struct {
		Allowed bool `json:"allowed"`
	}
	if err := c.postJSON(ctx, "/api/authorize", reqBody, &response, "authorize"); err != nil {
		return false, err
	}
	return response.Allowed, nil
}

// AuthorizeBatch partitions resources into fixed-size batches and checks the
// members of each batch concurrently, awaiting the whole batch before the
// next starts. An individual failure yields false for that resource only and
// never aborts its siblings.
func (c *Client) AuthorizeBatch(ctx context.Context, actor ports.Actor, action string, resources []ports.Resource) []bool {
	results := make([]bool, len(resources))
	for start := 0; start < len(resources); start += c.batchSize {
		end := start + c.batchSize
		if end > len(resources) {
			end = len(resources)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				allowed, err := c.Authorize(ctx, actor, action, resources[i])
				if err != nil {
					c.logger.Warn("authorization check failed, treating as denied",
						"actor", actor.ID,
						"resource_type", resources[i].Type,
						"resource_id", resources[i].ID,
						"error", err,
					)
					return
				}
				results[i] = allowed
			}(i)
		}
		wg.Wait()
	}
	return results
}

// BuildClientFilterSQL asks the oracle to compile "all Client resources the
// actor may <action>" into a relational query selecting a client_id column.
func (c *Client) BuildClientFilterSQL(ctx context.Context, actor ports.Actor, action string) (string, error) {
	reqBody := map[string]any{
		"actor":         actor,
		"action":        action,
		"resource_type": "Client",
		"select":        "client_id",
	}
	var response struct {
		SQL string `json:"sql"`
	}
	if err := c.postJSON(ctx, "/api/query", reqBody, &response, "build_query"); err != nil {
		return "", err
	}
	if strings.TrimSpace(response.SQL) == "" {
		return "", fmt.Errorf("oso build_query returned empty sql")
	}
	return response.SQL, nil
}

// Tell uploads one relationship fact (seed time). String args become the
// oracle's String value type; everything else must already be a Resource.
func (c *Client) Tell(ctx context.Context, name string, args ...any) error {
	wireArgs := make([]any, len(args))
	for i, arg := range args {
		if s, ok := arg.(string); ok {
			wireArgs[i] = ports.Resource{Type: "String", ID: s}
			continue
		}
		wireArgs[i] = arg
	}
	reqBody := map[string]any{
		"name": name,
		"args": wireArgs,
	}
	return c.postJSON(ctx, "/api/facts", reqBody, nil, "tell")
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody any, out any, operation string) error {
	call := func(ctx context.Context) error {
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
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("oso %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &HTTPStatusError{
				Operation:  operation,
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       string(raw),
			}
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	}

	if c.executor == nil {
		return call(ctx)
	}
	return c.executor.Execute(ctx, "oso_"+operation, call, classifyOsoError)
}
