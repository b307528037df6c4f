package ports

import (
	"context"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
)

// Actor and Resource identify the subject and object of a policy decision.
type Actor struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type Resource struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// AuthorizationOracle wraps the external policy-decision service.
type AuthorizationOracle interface {
	// Authorize answers one allowed(actor, action, resource) decision.
	Authorize(ctx context.Context, actor Actor, action string, resource Resource) (bool, error)

	// AuthorizeBatch checks each resource, running fixed-size batches of
	// concurrent decisions; a batch fully resolves before the next starts.
	// A failed individual check yields false for that resource only. The
	// result slice is positional with resources.
	AuthorizeBatch(ctx context.Context, actor Actor, action string, resources []Resource) []bool

	// BuildClientFilterSQL compiles "all Client resources the actor may
	// <action>" into a relational query selecting a client_id column.
	BuildClientFilterSQL(ctx context.Context, actor Actor, action string) (string, error)
}

// PolicyFactWriter uploads relationship facts to the oracle (seed time).
// Args are Resource values or plain strings (relation names, literals).
type PolicyFactWriter interface {
	Tell(ctx context.Context, name string, args ...any) error
}

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListAll(ctx context.Context) ([]domain.User, error)
}

type ClientRepository interface {
	ListAll(ctx context.Context) ([]domain.Client, error)
	ListByIDs(ctx context.Context, ids []int) ([]domain.Client, error)
	GetByID(ctx context.Context, id int) (*domain.Client, error)

	// SelectIDsRaw executes an oracle-compiled authorization predicate and
	// parses the identifier column, silently discarding unparseable rows.
	SelectIDsRaw(ctx context.Context, query string) ([]int, error)
}

type NoteRepository interface {
	ListRefs(ctx context.Context) ([]domain.NoteRef, error)
	ListAll(ctx context.Context) ([]domain.ClientNote, error)
	GetByID(ctx context.Context, id int) (*domain.ClientNote, error)

	// ReassignClient is the only permitted mutation of a note's client_id
	// after initial load. Callers must re-index the note afterwards.
	ReassignClient(ctx context.Context, noteID, clientID int) error
}

// Embedder builds vectors for note blocks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the external similarity index holding embedding records.
type VectorIndex interface {
	Upsert(ctx context.Context, records []domain.EmbeddingRecord) error
	Query(ctx context.Context, vector []float32, topK int, filter domain.VectorFilter, includeMetadata bool) ([]domain.VectorMatch, error)
	DeleteByFilter(ctx context.Context, filter domain.VectorFilter) error
}

// AnswerGenerator turns authorized snippets into the final answer text.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, blocks []domain.RetrievedBlock) (string, error)
}

// MessageQueue carries note-reindex events from the api to the worker.
type MessageQueue interface {
	PublishNoteReindex(ctx context.Context, noteID int) error
	SubscribeNoteReindex(ctx context.Context, handler func(context.Context, int) error) error
}
