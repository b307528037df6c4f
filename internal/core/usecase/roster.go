package usecase

import (
	"context"
	"fmt"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
	"github.com/eaegeea/rag-chatbot/internal/core/ports"
)

// RosterUseCase serves the roster endpoint: the user's profile plus every
// client the resolver says they may view.
type RosterUseCase struct {
	users    ports.UserRepository
	resolver rosterResolver
}

func NewRosterUseCase(users ports.UserRepository, resolver rosterResolver) *RosterUseCase {
	return &RosterUseCase{users: users, resolver: resolver}
}

func (uc *RosterUseCase) Roster(ctx context.Context, userEmail string) (*domain.Roster, error) {
	if userEmail == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "roster", fmt.Errorf("user email is required"))
	}

	user, err := uc.users.GetByEmail(ctx, userEmail)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	clients := uc.resolver.AuthorizedClients(ctx, userEmail)
	return &domain.Roster{
		User:         *user,
		Clients:      clients,
		TotalClients: len(clients),
	}, nil
}
