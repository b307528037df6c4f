package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
	"github.com/eaegeea/rag-chatbot/internal/core/ports"
)

const (
	// DefaultSimilarityThreshold is the minimum cosine similarity a match
	// must reach to be surfaced.
	DefaultSimilarityThreshold = 0.3

	// searchTopK is intentionally larger than maxResults to absorb
	// post-filtering losses from the client-side authorization pass.
	searchTopK = 20

	maxResults = 10
)

// clientAuthorizer is the slice of the resolver the retriever needs.
type clientAuthorizer interface {
	AuthorizedClientIDs(ctx context.Context, userEmail string) []int
}

// RetrievalAuditor counts matches the authorization filter discarded. Nil
// disables auditing (worker and seed have no metrics endpoint for it).
type RetrievalAuditor interface {
	RecordBlockedMatches(count int)
}

// Retriever is the semantic retrieval engine: embed the query, search the
// vector index, then enforce authorization client-side against the index
// metadata. The index-side filter is trivially true on purpose; the
// denormalized metadata is advisory and never trusted as an enforcement
// point on its own.
type Retriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	resolver clientAuthorizer
	audit    RetrievalAuditor
	logger   *slog.Logger
}

func NewRetriever(
	embedder ports.Embedder,
	index ports.VectorIndex,
	resolver clientAuthorizer,
	audit RetrievalAuditor,
	logger *slog.Logger,
) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		resolver: resolver,
		audit:    audit,
		logger:   logger,
	}
}

// Retrieve returns the authorized snippets most similar to the query, ranked
// by similarity descending and capped. An empty authorized set short-circuits
// before any search. Embedding or index failures propagate; no partial
// context is substituted.
func (r *Retriever) Retrieve(ctx context.Context, userEmail, query string, threshold float64) ([]domain.RetrievedBlock, error) {
	authorized := r.resolver.AuthorizedClientIDs(ctx, userEmail)
	if len(authorized) == 0 {
		return nil, nil
	}
	authorizedSet := make(map[int]struct{}, len(authorized))
	for _, id := range authorized {
		authorizedSet[id] = struct{}{}
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := r.index.Query(ctx, vector, searchTopK, domain.TrivialNoteFilter(), true)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	blocked := 0
	blocks := make([]domain.RetrievedBlock, 0, len(matches))
	for _, match := range matches {
		clientID := match.Metadata.ClientID
		if clientID == 0 {
			// Missing authorization metadata: fail closed.
			r.logger.Warn("discarding match without client metadata", "vector_id", match.ID)
			continue
		}
		if _, ok := authorizedSet[clientID]; !ok {
			blocked++
			r.logger.Warn("blocked unauthorized match",
				"user", userEmail,
				"client_id", clientID,
				"client_name", match.Metadata.ClientName,
				"client_note_id", match.Metadata.ClientNoteID,
			)
			continue
		}
		if match.Score < threshold {
			continue
		}
		blocks = append(blocks, domain.RetrievedBlock{
			ClientNoteID: match.Metadata.ClientNoteID,
			Content:      match.Metadata.Content,
			Similarity:   match.Score,
			ClientName:   match.Metadata.ClientName,
			Company:      match.Metadata.Company,
		})
	}

	if blocked > 0 && r.audit != nil {
		r.audit.RecordBlockedMatches(blocked)
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Similarity > blocks[j].Similarity
	})
	if len(blocks) > maxResults {
		blocks = blocks[:maxResults]
	}
	return blocks, nil
}
