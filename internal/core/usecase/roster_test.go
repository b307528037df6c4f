package usecase

import (
	"context"
	"testing"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
)

func TestRosterReturnsAuthorizedClients(t *testing.T) {
	resolver := &clientsResolverFake{clients: regionClients()[:2]}
	uc := NewRosterUseCase(chatFixtureUsers(), resolver)

	roster, err := uc.Roster(context.Background(), "alice@company.com")
	if err != nil {
		t.Fatalf("Roster() error = %v", err)
	}
	if roster.User.Email != "alice@company.com" {
		t.Fatalf("expected requesting user profile, got %s", roster.User.Email)
	}
	if roster.TotalClients != 2 || len(roster.Clients) != 2 {
		t.Fatalf("expected 2 clients, got %+v", roster)
	}
}

func TestRosterUnknownUser(t *testing.T) {
	uc := NewRosterUseCase(chatFixtureUsers(), &clientsResolverFake{})

	_, err := uc.Roster(context.Background(), "stranger@company.com")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found for unknown user, got %v", err)
	}
}

func TestRosterRequiresEmail(t *testing.T) {
	uc := NewRosterUseCase(chatFixtureUsers(), &clientsResolverFake{})

	if _, err := uc.Roster(context.Background(), ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
