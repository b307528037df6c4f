package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
)

type ClientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientSelect = `
SELECT c.id, c.name, c.company, c.region_id, reg.name,
	c.assigned_user_id, COALESCE(u.name, ''), COALESCE(u.email, '')
FROM clients c
JOIN regions reg ON reg.id = c.region_id
LEFT JOIN users u ON u.id = c.assigned_user_id
`

func (r *ClientRepository) ListAll(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, clientSelect+`ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	return scanClients(rows)
}

func (r *ClientRepository) ListByIDs(ctx context.Context, ids []int) ([]domain.Client, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := clientSelect + fmt.Sprintf(`WHERE c.id IN (%s) ORDER BY c.id`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients by ids: %w", err)
	}
	defer rows.Close()
	return scanClients(rows)
}

func (r *ClientRepository) GetByID(ctx context.Context, id int) (*domain.Client, error) {
	row := r.db.QueryRowContext(ctx, clientSelect+`WHERE c.id = $1`, id)

	var c domain.Client
	var assigned sql.NullInt64
	err := row.Scan(&c.ID, &c.Name, &c.Company, &c.RegionID, &c.RegionName, &assigned, &c.AssignedUserName, &c.AssignedUserEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get client", fmt.Errorf("client %d", id))
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}
	if assigned.Valid {
		v := int(assigned.Int64)
		c.AssignedUserID = &v
	}
	return &c, nil
}

// SelectIDsRaw runs an oracle-compiled authorization predicate and parses
// its identifier column into integers. Rows that fail to parse are discarded
// silently; the fallback strategy covers semantic gaps.
func (r *ClientRepository) SelectIDsRaw(ctx context.Context, query string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute authorization predicate: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		if id, ok := parseID(raw); ok {
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authorization predicate rows: %w", err)
	}
	return ids, nil
}

func parseID(raw any) (int, bool) {
	switch v := raw.(type) {
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case int:
		return v, true
	case []byte:
		id, err := strconv.Atoi(strings.TrimSpace(string(v)))
		return id, err == nil
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		return id, err == nil
	default:
		return 0, false
	}
}

func scanClients(rows *sql.Rows) ([]domain.Client, error) {
	var out []domain.Client
	for rows.Next() {
		var c domain.Client
		var assigned sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &c.Company, &c.RegionID, &c.RegionName, &assigned, &c.AssignedUserName, &c.AssignedUserEmail); err != nil {
			return nil, fmt.Errorf("scan client row: %w", err)
		}
		if assigned.Valid {
			v := int(assigned.Int64)
			c.AssignedUserID = &v
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client rows: %w", err)
	}
	return out, nil
}
