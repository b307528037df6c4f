package usecase

import (
	"context"
	"reflect"
	"testing"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
)

type splitterFake struct {
	blocks func(text string) []string
}

func (f *splitterFake) Split(text string) []string {
	if f.blocks != nil {
		return f.blocks(text)
	}
	if text == "" {
		return nil
	}
	return []string{text}
}

func reindexFixture() (*noteRepoFake, *clientRepoFake) {
	notes := &noteRepoFake{notes: []domain.ClientNote{
		{ID: 1, ClientID: 1, NoteType: "concern", Content: "John expressed concerns about our pricing structure."},
		{ID: 6, ClientID: 4, NoteType: "concern", Content: "Lisa raised integration concerns about API compatibility."},
	}}
	return notes, &clientRepoFake{clients: regionClients()}
}

func TestReindexNoteRebuildsFromLiveState(t *testing.T) {
	notes, clients := reindexFixture()
	index := &indexFake{}
	r := NewReindexer(notes, clients, &embedderFake{}, index, &splitterFake{}, testLogger())

	if err := r.ReindexNote(context.Background(), 1); err != nil {
		t.Fatalf("ReindexNote() error = %v", err)
	}

	if len(index.deletes) != 1 {
		t.Fatalf("expected stale records deleted first, got %d deletes", len(index.deletes))
	}
	if !reflect.DeepEqual(index.deletes[0], domain.NoteFilter(1)) {
		t.Fatalf("expected note-scoped delete filter, got %v", index.deletes[0])
	}
	if len(index.upserts) != 1 || len(index.upserts[0]) != 1 {
		t.Fatalf("expected one upserted record, got %v", index.upserts)
	}

	record := index.upserts[0][0]
	if record.ID != "client_note_1" {
		t.Fatalf("expected deterministic vector id, got %s", record.ID)
	}
	if record.Metadata.ClientID != 1 || record.Metadata.ClientName != "John Peterson" {
		t.Fatalf("expected metadata from live client record, got %+v", record.Metadata)
	}
	if record.Metadata.AssignedUserID != 1 {
		t.Fatalf("expected assigned user copied into metadata, got %d", record.Metadata.AssignedUserID)
	}
}

func TestReindexNoteIsIdempotent(t *testing.T) {
	notes, clients := reindexFixture()
	index := &indexFake{}
	r := NewReindexer(notes, clients, &embedderFake{}, index, &splitterFake{}, testLogger())

	if err := r.ReindexNote(context.Background(), 1); err != nil {
		t.Fatalf("first ReindexNote() error = %v", err)
	}
	if err := r.ReindexNote(context.Background(), 1); err != nil {
		t.Fatalf("second ReindexNote() error = %v", err)
	}
	if len(index.upserts) != 2 {
		t.Fatalf("expected two upsert rounds, got %d", len(index.upserts))
	}
	if !reflect.DeepEqual(index.upserts[0], index.upserts[1]) {
		t.Fatalf("re-running reindex must converge to identical records")
	}
}

func TestReindexSplitsLongNotes(t *testing.T) {
	notes, clients := reindexFixture()
	index := &indexFake{}
	splitter := &splitterFake{blocks: func(string) []string {
		return []string{"first block", "second block"}
	}}
	r := NewReindexer(notes, clients, &embedderFake{}, index, splitter, testLogger())

	if err := r.ReindexNote(context.Background(), 6); err != nil {
		t.Fatalf("ReindexNote() error = %v", err)
	}
	records := index.upserts[0]
	if len(records) != 2 {
		t.Fatalf("expected one record per block, got %d", len(records))
	}
	if records[0].ID != "client_note_6" || records[1].ID != "client_note_6_1" {
		t.Fatalf("unexpected block vector ids: %s, %s", records[0].ID, records[1].ID)
	}
}

func TestReindexAllCountsNotes(t *testing.T) {
	notes, clients := reindexFixture()
	index := &indexFake{}
	r := NewReindexer(notes, clients, &embedderFake{}, index, &splitterFake{}, testLogger())

	count, err := r.ReindexAll(context.Background())
	if err != nil {
		t.Fatalf("ReindexAll() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 reindexed notes, got %d", count)
	}
}

func TestDetectDriftFlagsMismatchedReferences(t *testing.T) {
	notes := &noteRepoFake{notes: []domain.ClientNote{
		{ID: 1, ClientID: 1, NoteType: "concern", Content: "John expressed concerns about pricing."},
		{ID: 2, ClientID: 1, NoteType: "meeting", Content: "Lisa Garcia asked about API compatibility with Innovation Labs systems."},
		{ID: 3, ClientID: 2, NoteType: "call", Content: "Call covered both Lisa Garcia and Chris Lee expansion plans."},
	}}
	clients := &clientRepoFake{clients: regionClients()}
	r := NewReindexer(notes, clients, &embedderFake{}, &indexFake{}, &splitterFake{}, testLogger())

	findings, err := r.DetectDrift(context.Background())
	if err != nil {
		t.Fatalf("DetectDrift() error = %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %+v", len(findings), findings)
	}

	single := findings[0]
	if single.NoteID != 2 || !single.Repairable() {
		t.Fatalf("expected note 2 repairable, got %+v", single)
	}
	if single.Referenced[0].ID != 4 {
		t.Fatalf("expected reference to client 4, got %+v", single.Referenced)
	}

	ambiguous := findings[1]
	if ambiguous.NoteID != 3 || ambiguous.Repairable() {
		t.Fatalf("expected note 3 ambiguous, got %+v", ambiguous)
	}
}

func TestRepairDriftReassignsAndReindexes(t *testing.T) {
	notes := &noteRepoFake{notes: []domain.ClientNote{
		{ID: 2, ClientID: 1, NoteType: "meeting", Content: "Lisa Garcia asked about API compatibility."},
		{ID: 3, ClientID: 2, NoteType: "call", Content: "Call covered both Lisa Garcia and Chris Lee."},
	}}
	clients := &clientRepoFake{clients: regionClients()}
	index := &indexFake{}
	r := NewReindexer(notes, clients, &embedderFake{}, index, &splitterFake{}, testLogger())

	repairs, err := r.RepairDrift(context.Background())
	if err != nil {
		t.Fatalf("RepairDrift() error = %v", err)
	}
	if len(repairs) != 1 {
		t.Fatalf("expected exactly one repair, ambiguous note skipped; got %+v", repairs)
	}
	repair := repairs[0]
	if repair.NoteID != 2 || repair.FromClientID != 1 || repair.ToClientID != 4 {
		t.Fatalf("unexpected repair: %+v", repair)
	}
	if notes.reassigned[2] != 4 {
		t.Fatalf("expected relational reassignment to client 4, got %v", notes.reassigned)
	}
	if _, ok := notes.reassigned[3]; ok {
		t.Fatalf("ambiguous note must not be mutated")
	}

	// The reindex that follows the repair must carry the corrected metadata.
	if len(index.upserts) != 1 {
		t.Fatalf("expected one reindex round, got %d", len(index.upserts))
	}
	record := index.upserts[0][0]
	if record.Metadata.ClientID != 4 || record.Metadata.ClientName != "Lisa Garcia" {
		t.Fatalf("expected repaired metadata, got %+v", record.Metadata)
	}
}
