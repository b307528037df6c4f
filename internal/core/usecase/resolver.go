package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
	"github.com/eaegeea/rag-chatbot/internal/core/ports"
)

const viewAction = "view"

// Resolver determines the exact set of clients a user may view. Two
// strategies run in order: an oracle-compiled relational predicate executed
// once against the store, then a per-client batched oracle fallback when the
// bulk path fails for any reason. Callers must not depend on which strategy
// executed; both produce the same semantic result.
//
// Resolver methods convert their own failures into empty collections: a
// misbehaving store or oracle degrades to "no authorized clients" (fail
// closed), never to a request crash.
type Resolver struct {
	oracle  ports.AuthorizationOracle
	clients ports.ClientRepository
	notes   ports.NoteRepository
	logger  *slog.Logger
}

func NewResolver(
	oracle ports.AuthorizationOracle,
	clients ports.ClientRepository,
	notes ports.NoteRepository,
	logger *slog.Logger,
) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		oracle:  oracle,
		clients: clients,
		notes:   notes,
		logger:  logger,
	}
}

func userActor(email string) ports.Actor {
	return ports.Actor{Type: "User", ID: email}
}

func clientResource(id int) ports.Resource {
	return ports.Resource{Type: "Client", ID: strconv.Itoa(id)}
}

// AuthorizedClientIDs returns the sorted set of client ids the user may view.
func (r *Resolver) AuthorizedClientIDs(ctx context.Context, userEmail string) []int {
	ids, err := r.bulkAuthorizedIDs(ctx, userEmail)
	if err == nil {
		sort.Ints(ids)
		return ids
	}
	r.logger.Warn("bulk authorization query failed, falling back to per-client checks",
		"user", userEmail, "error", err)

	ids = r.fallbackAuthorizedIDs(ctx, userEmail)
	sort.Ints(ids)
	return ids
}

// bulkAuthorizedIDs compiles the policy into a single relational predicate
// and executes it once. Any failure falls through to the fallback strategy.
func (r *Resolver) bulkAuthorizedIDs(ctx context.Context, userEmail string) ([]int, error) {
	query, err := r.oracle.BuildClientFilterSQL(ctx, userActor(userEmail), viewAction)
	if err != nil {
		return nil, err
	}
	return r.clients.SelectIDsRaw(ctx, query)
}

// fallbackAuthorizedIDs enumerates every client and asks the oracle about
// each one in bounded concurrent batches.
func (r *Resolver) fallbackAuthorizedIDs(ctx context.Context, userEmail string) []int {
	all, err := r.clients.ListAll(ctx)
	if err != nil {
		r.logger.Error("list clients for authorization fallback", "user", userEmail, "error", err)
		return nil
	}
	if len(all) == 0 {
		return nil
	}

	resources := make([]ports.Resource, len(all))
	for i, c := range all {
		resources[i] = clientResource(c.ID)
	}

	allowed := r.oracle.AuthorizeBatch(ctx, userActor(userEmail), viewAction, resources)

	ids := make([]int, 0, len(all))
	for i, ok := range allowed {
		if ok {
			ids = append(ids, all[i].ID)
		}
	}
	return ids
}

// AuthorizedClients returns the full client records for the authorized set,
// annotated with region and assigned owner.
func (r *Resolver) AuthorizedClients(ctx context.Context, userEmail string) []domain.Client {
	ids := r.AuthorizedClientIDs(ctx, userEmail)
	if len(ids) == 0 {
		return nil
	}
	clients, err := r.clients.ListByIDs(ctx, ids)
	if err != nil {
		r.logger.Error("fetch authorized client records", "user", userEmail, "error", err)
		return nil
	}
	return clients
}

// AuthorizedClientNoteIDs derives note-level authorization transitively: a
// note is readable iff its client_id is in the authorized client set. No
// note-level oracle call is made.
func (r *Resolver) AuthorizedClientNoteIDs(ctx context.Context, userEmail string) []int {
	clientIDs := r.AuthorizedClientIDs(ctx, userEmail)
	if len(clientIDs) == 0 {
		return nil
	}
	authorized := make(map[int]struct{}, len(clientIDs))
	for _, id := range clientIDs {
		authorized[id] = struct{}{}
	}

	refs, err := r.notes.ListRefs(ctx)
	if err != nil {
		r.logger.Error("list note refs for transitive authorization", "user", userEmail, "error", err)
		return nil
	}

	noteIDs := make([]int, 0, len(refs))
	for _, ref := range refs {
		if _, ok := authorized[ref.ClientID]; ok {
			noteIDs = append(noteIDs, ref.ID)
		}
	}
	sort.Ints(noteIDs)
	return noteIDs
}
