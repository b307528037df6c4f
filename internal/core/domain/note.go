package domain

// ClientNote is attached to exactly one client. Authorization is derived
// transitively: a user may read a note iff they may view note.ClientID.
// ClientID is mutated only through the drift-repair path, which re-indexes
// the note's embedding records in the same operation.
type ClientNote struct {
	ID       int    `json:"id"`
	ClientID int    `json:"client_id"`
	NoteType string `json:"note_type"`
	Content  string `json:"content"`
}

// NoteRef is the id/owner projection used for transitive note authorization.
type NoteRef struct {
	ID       int
	ClientID int
}

// EmbeddingMetadata is the denormalized authorization metadata stored next to
// each vector. It is a derived, potentially stale copy of the relational
// assignment; the reindexer is the only writer. A zero ClientID means the
// identifier is absent (relational ids start at 1) and the match must be
// discarded.
type EmbeddingMetadata struct {
	ClientNoteID   int    `json:"client_note_id"`
	ClientID       int    `json:"client_id"`
	ClientName     string `json:"client_name"`
	Company        string `json:"company"`
	Content        string `json:"content"`
	AssignedUserID int    `json:"assigned_user_id"`
	NoteType       string `json:"note_type"`
}

// EmbeddingRecord is one indexed block: a note's content (or a block of it)
// plus its vector and metadata copy.
type EmbeddingRecord struct {
	ID       string
	Vector   []float32
	Metadata EmbeddingMetadata
}

// DriftFinding flags a note whose content textually references a client other
// than the one its client_id resolves to.
type DriftFinding struct {
	NoteID           int      `json:"note_id"`
	AssignedClientID int      `json:"assigned_client_id"`
	AssignedClient   string   `json:"assigned_client"`
	Referenced       []Client `json:"referenced_clients"`
}

// Repairable reports whether the finding names exactly one other client and
// can therefore be corrected automatically.
func (f DriftFinding) Repairable() bool {
	return len(f.Referenced) == 1
}

// DriftRepair records one executed reassignment.
type DriftRepair struct {
	NoteID       int `json:"note_id"`
	FromClientID int `json:"from_client_id"`
	ToClientID   int `json:"to_client_id"`
}
