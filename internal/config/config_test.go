package config

import "testing"

func TestLoadRetrievalDefaults(t *testing.T) {
	t.Setenv("RAG_SIMILARITY_THRESHOLD", "")
	t.Setenv("AUTHZ_BATCH_SIZE", "")
	t.Setenv("MAX_NOTE_BLOCK_SIZE", "")
	t.Setenv("OPENAI_EMBED_MODEL", "")
	t.Setenv("OPENAI_CHAT_MODEL", "")

	cfg := Load()
	if cfg.SimilarityThreshold != 0.3 {
		t.Fatalf("expected default similarity threshold 0.3, got %v", cfg.SimilarityThreshold)
	}
	if cfg.AuthzBatchSize != 10 {
		t.Fatalf("expected default batch size 10, got %d", cfg.AuthzBatchSize)
	}
	if cfg.MaxNoteBlockSize != 8000 {
		t.Fatalf("expected default block size 8000, got %d", cfg.MaxNoteBlockSize)
	}
	if cfg.OpenAIEmbedModel != "text-embedding-3-small" {
		t.Fatalf("expected default embed model, got %q", cfg.OpenAIEmbedModel)
	}
	if cfg.OpenAIChatModel != "gpt-4o-mini" {
		t.Fatalf("expected default chat model, got %q", cfg.OpenAIChatModel)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RAG_SIMILARITY_THRESHOLD", "0.45")
	t.Setenv("AUTHZ_BATCH_SIZE", "25")
	t.Setenv("OPENAI_EMBED_RPS", "2.5")
	t.Setenv("NATS_SUBJECT", "notes.reindex.test")

	cfg := Load()
	if cfg.SimilarityThreshold != 0.45 {
		t.Fatalf("expected threshold override, got %v", cfg.SimilarityThreshold)
	}
	if cfg.AuthzBatchSize != 25 {
		t.Fatalf("expected batch size override, got %d", cfg.AuthzBatchSize)
	}
	if cfg.OpenAIEmbedRPS != 2.5 {
		t.Fatalf("expected embed rps override, got %v", cfg.OpenAIEmbedRPS)
	}
	if cfg.NATSSubject != "notes.reindex.test" {
		t.Fatalf("expected subject override, got %q", cfg.NATSSubject)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("RAG_SIMILARITY_THRESHOLD", "not-a-number")
	t.Setenv("AUTHZ_BATCH_SIZE", "lots")

	cfg := Load()
	if cfg.SimilarityThreshold != 0.3 {
		t.Fatalf("expected fallback threshold on parse failure, got %v", cfg.SimilarityThreshold)
	}
	if cfg.AuthzBatchSize != 10 {
		t.Fatalf("expected fallback batch size on parse failure, got %d", cfg.AuthzBatchSize)
	}
}
