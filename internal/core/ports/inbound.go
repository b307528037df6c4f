package ports

import (
	"context"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
)

// ChatService is the inbound contract for the query endpoint.
type ChatService interface {
	Chat(ctx context.Context, userEmail, message string) (*domain.ChatAnswer, error)
}

// RosterService is the inbound contract for the roster endpoint.
type RosterService interface {
	Roster(ctx context.Context, userEmail string) (*domain.Roster, error)
}

// ConsistencyService exposes the dual-store repair operations.
type ConsistencyService interface {
	ReindexNote(ctx context.Context, noteID int) error
	ReindexAll(ctx context.Context) (int, error)
	DetectDrift(ctx context.Context) ([]domain.DriftFinding, error)
	RepairDrift(ctx context.Context) ([]domain.DriftRepair, error)
}
