package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/eaegeea/rag-chatbot/internal/bootstrap"
	"github.com/eaegeea/rag-chatbot/internal/config"
	"github.com/eaegeea/rag-chatbot/internal/core/domain"
	"github.com/eaegeea/rag-chatbot/internal/core/ports"
	"github.com/eaegeea/rag-chatbot/internal/infrastructure/repository/postgres"
	"github.com/eaegeea/rag-chatbot/internal/observability/logging"
)

// seed loads the demo dataset end to end: relational fixtures, policy facts
// in the authorization oracle, and embedding records in the vector index.
func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("seed", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, nil)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	if err := postgres.SeedFixtures(ctx, app.DB); err != nil {
		log.Fatalf("seed fixtures: %v", err)
	}
	logger.Info("relational fixtures loaded")

	if err := loadPolicyFacts(ctx, app); err != nil {
		log.Fatalf("load policy facts: %v", err)
	}
	logger.Info("policy facts loaded")

	count, err := app.Reindexer.ReindexAll(ctx)
	if err != nil {
		log.Fatalf("reindex notes: %v", err)
	}
	logger.Info("vector index built", "notes", count)
}

// loadPolicyFacts mirrors the relational state into the oracle as
// has_relation facts. Sales managers attach to the organization as "manager",
// everyone else as "user"; clients carry their region and assigned owner.
func loadPolicyFacts(ctx context.Context, app *bootstrap.App) error {
	users, err := app.Users.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	clients, err := app.Clients.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	refs, err := app.Notes.ListRefs(ctx)
	if err != nil {
		return fmt.Errorf("list note refs: %w", err)
	}

	type regionFact struct {
		orgID int
		name  string
	}
	orgs := map[int]struct{}{}
	regions := map[int]regionFact{}
	usersByID := map[int]domain.User{}
	for _, u := range users {
		orgs[u.OrganizationID] = struct{}{}
		if u.RegionID != 0 {
			regions[u.RegionID] = regionFact{orgID: u.OrganizationID, name: u.RegionName}
		}
		usersByID[u.ID] = u
	}

	for orgID := range orgs {
		org := ports.Resource{Type: "Organization", ID: strconv.Itoa(orgID)}
		if err := app.Oso.Tell(ctx, "has_relation", org, "name", "Company"); err != nil {
			return fmt.Errorf("tell organization %d: %w", orgID, err)
		}
	}

	for regionID, r := range regions {
		region := ports.Resource{Type: "Region", ID: strconv.Itoa(regionID)}
		org := ports.Resource{Type: "Organization", ID: strconv.Itoa(r.orgID)}
		if err := app.Oso.Tell(ctx, "has_relation", region, "belongs_to", org); err != nil {
			return fmt.Errorf("tell region %d membership: %w", regionID, err)
		}
		if err := app.Oso.Tell(ctx, "has_relation", region, "name", r.name); err != nil {
			return fmt.Errorf("tell region %d name: %w", regionID, err)
		}
	}

	for _, u := range users {
		actor := ports.Resource{Type: "User", ID: u.Email}
		org := ports.Resource{Type: "Organization", ID: strconv.Itoa(u.OrganizationID)}
		relation := "user"
		if u.Role == domain.RoleSalesManager {
			relation = "manager"
		}
		if err := app.Oso.Tell(ctx, "has_relation", actor, relation, org); err != nil {
			return fmt.Errorf("tell user %s: %w", u.Email, err)
		}
	}

	for _, c := range clients {
		client := ports.Resource{Type: "Client", ID: strconv.Itoa(c.ID)}
		region := ports.Resource{Type: "Region", ID: strconv.Itoa(c.RegionID)}
		if err := app.Oso.Tell(ctx, "has_relation", client, "region", region); err != nil {
			return fmt.Errorf("tell client %d region: %w", c.ID, err)
		}
		if c.AssignedUserID != nil {
			owner, ok := usersByID[*c.AssignedUserID]
			if !ok {
				return fmt.Errorf("client %d assigned to unknown user %d", c.ID, *c.AssignedUserID)
			}
			assigned := ports.Resource{Type: "User", ID: owner.Email}
			if err := app.Oso.Tell(ctx, "has_relation", client, "assigned", assigned); err != nil {
				return fmt.Errorf("tell client %d assignment: %w", c.ID, err)
			}
		}
	}

	for _, ref := range refs {
		note := ports.Resource{Type: "ClientNote", ID: strconv.Itoa(ref.ID)}
		client := ports.Resource{Type: "Client", ID: strconv.Itoa(ref.ClientID)}
		if err := app.Oso.Tell(ctx, "has_relation", note, "client", client); err != nil {
			return fmt.Errorf("tell note %d: %w", ref.ID, err)
		}
	}
	return nil
}
