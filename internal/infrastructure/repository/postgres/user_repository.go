package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT u.id, u.email, u.name, u.role, u.organization_id, COALESCE(u.region_id, 0), COALESCE(reg.name, '')
FROM users u
LEFT JOIN regions reg ON reg.id = u.region_id
WHERE u.email = $1
`, email)

	var user domain.User
	var role string
	err := row.Scan(&user.ID, &user.Email, &user.Name, &role, &user.OrganizationID, &user.RegionID, &user.RegionName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get user", fmt.Errorf("user %s", email))
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Role = domain.Role(role)
	return &user, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT u.id, u.email, u.name, u.role, u.organization_id, COALESCE(u.region_id, 0), COALESCE(reg.name, '')
FROM users u
LEFT JOIN regions reg ON reg.id = u.region_id
ORDER BY u.id
`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		var role string
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &role, &user.OrganizationID, &user.RegionID, &user.RegionName); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		user.Role = domain.Role(role)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}
