package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

type seedUser struct {
	id       int
	email    string
	name     string
	role     string
	regionID int
}

type seedClient struct {
	id         int
	name       string
	company    string
	regionID   int
	assignedID int
}

type seedNote struct {
	id       int
	clientID int
	noteType string
	content  string
}

// SeedFixtures loads the demo sales organization: one company, two regions,
// seven users, twelve clients and their notes. Inserts are upserts keyed on
// id, so re-running the seed converges instead of duplicating.
func SeedFixtures(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO organizations (id, name) VALUES (1, 'Company')
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`); err != nil {
		return fmt.Errorf("seed organization: %w", err)
	}

	regions := []struct {
		id   int
		name string
	}{
		{1, "East"},
		{2, "West"},
	}
	for _, r := range regions {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO regions (id, organization_id, name) VALUES ($1, 1, $2)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, r.id, r.name); err != nil {
			return fmt.Errorf("seed region %s: %w", r.name, err)
		}
	}

	for _, u := range seedUsers {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO users (id, email, name, role, organization_id, region_id)
VALUES ($1, $2, $3, $4, 1, $5)
ON CONFLICT (id) DO UPDATE SET
	email = EXCLUDED.email, name = EXCLUDED.name,
	role = EXCLUDED.role, region_id = EXCLUDED.region_id`,
			u.id, u.email, u.name, u.role, u.regionID); err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}
	}

	for _, c := range seedClients {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO clients (id, name, company, region_id, assigned_user_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name, company = EXCLUDED.company,
	region_id = EXCLUDED.region_id, assigned_user_id = EXCLUDED.assigned_user_id`,
			c.id, c.name, c.company, c.regionID, c.assignedID); err != nil {
			return fmt.Errorf("seed client %s: %w", c.name, err)
		}
	}

	for _, n := range seedNotes {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO client_notes (id, client_id, note_type, content)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
	client_id = EXCLUDED.client_id, note_type = EXCLUDED.note_type,
	content = EXCLUDED.content`,
			n.id, n.clientID, n.noteType, n.content); err != nil {
			return fmt.Errorf("seed note %d: %w", n.id, err)
		}
	}

	// Keep the serial sequences ahead of the fixed ids.
	for _, stmt := range []string{
		`SELECT setval(pg_get_serial_sequence('organizations', 'id'), (SELECT MAX(id) FROM organizations))`,
		`SELECT setval(pg_get_serial_sequence('regions', 'id'), (SELECT MAX(id) FROM regions))`,
		`SELECT setval(pg_get_serial_sequence('users', 'id'), (SELECT MAX(id) FROM users))`,
		`SELECT setval(pg_get_serial_sequence('clients', 'id'), (SELECT MAX(id) FROM clients))`,
		`SELECT setval(pg_get_serial_sequence('client_notes', 'id'), (SELECT MAX(id) FROM client_notes))`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("advance sequence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

var seedUsers = []seedUser{
	{7, "ceo@company.com", "Shawn Wilson", "ceo", 1},
	{1, "alice@company.com", "Alice Johnson", "salesperson", 1},
	{2, "bob@company.com", "Bob Smith", "salesperson", 1},
	{3, "carol@company.com", "Carol Williams", "salesmanager", 1},
	{4, "david@company.com", "David Brown", "salesperson", 2},
	{5, "eve@company.com", "Eve Davis", "salesperson", 2},
	{6, "frank@company.com", "Frank Miller", "salesmanager", 2},
}

var seedClients = []seedClient{
	{1, "John Peterson", "Tech Corp", 1, 1},
	{2, "Sarah Wilson", "Data Solutions Inc", 1, 1},
	{3, "Mike Thompson", "Cloud Systems LLC", 1, 1},
	{4, "Lisa Garcia", "Innovation Labs", 1, 2},
	{5, "Tom Anderson", "Digital Enterprises", 1, 2},
	{6, "Anna Rodriguez", "Future Tech Co", 1, 2},
	{7, "Chris Lee", "West Coast Ventures", 2, 4},
	{8, "Rachel Kim", "Pacific Systems", 2, 4},
	{9, "Mark Taylor", "Coastal Analytics", 2, 4},
	{10, "Jessica White", "Mountain View Corp", 2, 5},
	{11, "Ryan Martinez", "Silicon Solutions", 2, 5},
	{12, "Amy Chen", "Golden Gate Tech", 2, 5},
}

var seedNotes = []seedNote{
	{1, 1, "concern", "John expressed concerns about our pricing structure during the Q3 review. He mentioned that competitors are offering similar services at 20% lower cost. Need to prepare cost justification document."},
	{2, 1, "call", "Follow-up call with John went well. Discussed implementation timeline and technical requirements. He is interested in our premium support package."},
	{3, 2, "meeting", "Sarah requested detailed security compliance documentation. Her company has strict data protection requirements due to healthcare clients."},
	{4, 2, "pricing", "Pricing discussion with Sarah - she has budget approved for $50K but wants to see ROI projections over 18 months."},
	{5, 3, "meeting", "Mike is very satisfied with current service. Mentioned potential expansion to their European operations. Great upsell opportunity."},
	{6, 4, "concern", "Lisa raised integration concerns about our API compatibility with their legacy systems. Technical team needs to review their current architecture."},
	{7, 4, "meeting", "Successful demo session with Lisa's team. They were impressed with the dashboard functionality and reporting capabilities."},
	{8, 5, "call", "Tom requested expedited deployment timeline. His company has a major product launch in Q1 and needs our solution operational by then."},
	{9, 5, "pricing", "Pricing negotiation with Tom - he wants volume discount for multi-year contract. Need management approval for special pricing."},
	{10, 6, "email", "Anna provided positive feedback on pilot program results. 30% improvement in operational efficiency reported by her team."},
	{11, 7, "meeting", "Chris highlighted performance requirements for high-traffic scenarios. Need to discuss our enterprise scaling capabilities."},
	{12, 7, "concern", "Competitive pressure from local vendor. Chris mentioned they received aggressive pricing proposal. Need to respond quickly."},
	{13, 8, "call", "Rachel expressed satisfaction with current pilot phase. Her team adapted quickly to our interface and workflows."},
	{14, 8, "meeting", "Discussed customization requirements with Rachel. She needs specific reporting formats for regulatory compliance."},
	{15, 9, "concern", "Mark raised questions about data backup and disaster recovery procedures. Security is top priority for his organization."},
	{16, 10, "meeting", "Jessica interested in expanding usage across additional departments. Potential to triple current contract value."},
	{17, 10, "pricing", "Pricing discussion - Jessica has budget constraints but sees strong value proposition. Exploring flexible payment terms."},
	{18, 11, "email", "Ryan reported excellent user adoption rates. 95% of team members actively using the platform daily."},
	{19, 11, "meeting", "Technical integration meeting with Ryan's IT team. Discussed API endpoints and data synchronization requirements."},
	{20, 12, "call", "Amy requested comprehensive training program for her extended team. Planning multi-session onboarding schedule."},
}
