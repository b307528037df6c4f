package domain

type QueryType string

const (
	QueryTypeClientList QueryType = "client_list"
	QueryTypeRAGSearch  QueryType = "rag_search"
)

// VectorFilter is the index-side filter expression, in the index's native
// operator syntax (e.g. {"client_note_id": {"$gte": 1}}).
type VectorFilter map[string]any

// TrivialNoteFilter matches every indexed note block. The retrieval engine
// deliberately does not push authorization into the index filter; the index
// metadata is advisory and filtering happens client-side.
func TrivialNoteFilter() VectorFilter {
	return VectorFilter{"client_note_id": map[string]any{"$gte": 1}}
}

// NoteFilter matches all blocks belonging to one note.
func NoteFilter(noteID int) VectorFilter {
	return VectorFilter{"client_note_id": map[string]any{"$eq": noteID}}
}

// VectorMatch is one ranked nearest-neighbor result. Score is cosine
// similarity in [-1, 1].
type VectorMatch struct {
	ID       string
	Score    float64
	Metadata EmbeddingMetadata
}

// RetrievedBlock is an authorized, threshold-passing snippet annotated for
// citation.
type RetrievedBlock struct {
	ClientNoteID int     `json:"client_note_id"`
	Content      string  `json:"content"`
	Similarity   float64 `json:"similarity"`
	ClientName   string  `json:"client_name"`
	Company      string  `json:"company"`
}

// ChatAnswer is the query endpoint's response payload.
type ChatAnswer struct {
	Response     string    `json:"response"`
	ContextCount int       `json:"contextCount"`
	QueryType    QueryType `json:"queryType"`
}
