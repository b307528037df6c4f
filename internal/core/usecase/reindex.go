package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
	"github.com/eaegeea/rag-chatbot/internal/core/ports"
)

// noteSplitter splits long note content into embeddable blocks.
type noteSplitter interface {
	Split(text string) []string
}

// Reindexer keeps the vector-index metadata equal to the relational
// note→client assignment. Reindexing deletes any existing records for a note
// and rebuilds them from live relational state; the stale record's metadata
// is never trusted. Reindexing an already-correct note is a no-op apart from
// regenerating the vector, so crash-interrupted repairs are safe to re-run.
type Reindexer struct {
	notes    ports.NoteRepository
	clients  ports.ClientRepository
	embedder ports.Embedder
	index    ports.VectorIndex
	splitter noteSplitter
	logger   *slog.Logger
}

func NewReindexer(
	notes ports.NoteRepository,
	clients ports.ClientRepository,
	embedder ports.Embedder,
	index ports.VectorIndex,
	splitter noteSplitter,
	logger *slog.Logger,
) *Reindexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reindexer{
		notes:    notes,
		clients:  clients,
		embedder: embedder,
		index:    index,
		splitter: splitter,
		logger:   logger,
	}
}

// VectorID names a note block's embedding record deterministically so that
// repeated reindexing upserts in place.
func VectorID(noteID, block int) string {
	if block == 0 {
		return fmt.Sprintf("client_note_%d", noteID)
	}
	return fmt.Sprintf("client_note_%d_%d", noteID, block)
}

func (r *Reindexer) ReindexNote(ctx context.Context, noteID int) error {
	note, err := r.notes.GetByID(ctx, noteID)
	if err != nil {
		return fmt.Errorf("load note %d: %w", noteID, err)
	}
	client, err := r.clients.GetByID(ctx, note.ClientID)
	if err != nil {
		return fmt.Errorf("load client %d for note %d: %w", note.ClientID, noteID, err)
	}

	if err := r.index.DeleteByFilter(ctx, domain.NoteFilter(noteID)); err != nil {
		return fmt.Errorf("delete stale records for note %d: %w", noteID, err)
	}

	blocks := r.splitter.Split(note.Content)
	if len(blocks) == 0 {
		return nil
	}
	vectors, err := r.embedder.Embed(ctx, blocks)
	if err != nil {
		return fmt.Errorf("embed note %d: %w", noteID, err)
	}
	if len(vectors) != len(blocks) {
		return fmt.Errorf("embed note %d: got %d vectors for %d blocks", noteID, len(vectors), len(blocks))
	}

	assignedUserID := 0
	if client.AssignedUserID != nil {
		assignedUserID = *client.AssignedUserID
	}
	records := make([]domain.EmbeddingRecord, len(blocks))
	for i, content := range blocks {
		records[i] = domain.EmbeddingRecord{
			ID:     VectorID(noteID, i),
			Vector: vectors[i],
			Metadata: domain.EmbeddingMetadata{
				ClientNoteID:   note.ID,
				ClientID:       client.ID,
				ClientName:     client.Name,
				Company:        client.Company,
				Content:        content,
				AssignedUserID: assignedUserID,
				NoteType:       note.NoteType,
			},
		}
	}
	if err := r.index.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert records for note %d: %w", noteID, err)
	}

	r.logger.Info("reindexed note", "note_id", noteID, "client_id", client.ID, "blocks", len(blocks))
	return nil
}

// ReindexAll rebuilds every note's embedding records (seed/ingestion time).
func (r *Reindexer) ReindexAll(ctx context.Context) (int, error) {
	notes, err := r.notes.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list notes: %w", err)
	}
	count := 0
	for _, note := range notes {
		if err := r.ReindexNote(ctx, note.ID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// DetectDrift flags notes whose content textually references a client other
// than the one their client_id resolves to. Detection is diagnostic only; it
// mutates nothing.
func (r *Reindexer) DetectDrift(ctx context.Context) ([]domain.DriftFinding, error) {
	notes, err := r.notes.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	clients, err := r.clients.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	byID := make(map[int]domain.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}

	var findings []domain.DriftFinding
	for _, note := range notes {
		content := strings.ToLower(note.Content)
		var referenced []domain.Client
		for _, c := range clients {
			if c.ID == note.ClientID {
				continue
			}
			if mentionsClient(content, c) {
				referenced = append(referenced, c)
			}
		}
		if len(referenced) == 0 {
			continue
		}
		sort.Slice(referenced, func(i, j int) bool { return referenced[i].ID < referenced[j].ID })
		assigned := byID[note.ClientID]
		findings = append(findings, domain.DriftFinding{
			NoteID:           note.ID,
			AssignedClientID: note.ClientID,
			AssignedClient:   assigned.Name,
			Referenced:       referenced,
		})
	}
	return findings, nil
}

// RepairDrift reassigns each repairable finding (content names exactly one
// other client) to the referenced client, then reindexes the note. This is
// the only mutation path for a note's client_id; anything ambiguous is left
// for manual review. The relational update and the re-embed are not atomic
// across the two stores, so the whole operation is idempotent: re-running it
// after a crash converges to the same state.
func (r *Reindexer) RepairDrift(ctx context.Context) ([]domain.DriftRepair, error) {
	findings, err := r.DetectDrift(ctx)
	if err != nil {
		return nil, err
	}

	var repairs []domain.DriftRepair
	for _, f := range findings {
		if !f.Repairable() {
			r.logger.Warn("drifted note is ambiguous, skipping",
				"note_id", f.NoteID, "referenced_clients", len(f.Referenced))
			continue
		}
		target := f.Referenced[0]
		if err := r.notes.ReassignClient(ctx, f.NoteID, target.ID); err != nil {
			return repairs, fmt.Errorf("reassign note %d to client %d: %w", f.NoteID, target.ID, err)
		}
		if err := r.ReindexNote(ctx, f.NoteID); err != nil {
			return repairs, err
		}
		r.logger.Info("repaired drifted note",
			"note_id", f.NoteID, "from_client_id", f.AssignedClientID, "to_client_id", target.ID)
		repairs = append(repairs, domain.DriftRepair{
			NoteID:       f.NoteID,
			FromClientID: f.AssignedClientID,
			ToClientID:   target.ID,
		})
	}
	return repairs, nil
}

func mentionsClient(loweredContent string, c domain.Client) bool {
	if name := strings.ToLower(c.Name); name != "" && strings.Contains(loweredContent, name) {
		return true
	}
	if company := strings.ToLower(c.Company); company != "" && strings.Contains(loweredContent, company) {
		return true
	}
	return false
}
