package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
)

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) ListRefs(ctx context.Context) ([]domain.NoteRef, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, client_id FROM client_notes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list note refs: %w", err)
	}
	defer rows.Close()

	var refs []domain.NoteRef
	for rows.Next() {
		var ref domain.NoteRef
		if err := rows.Scan(&ref.ID, &ref.ClientID); err != nil {
			return nil, fmt.Errorf("scan note ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate note refs: %w", err)
	}
	return refs, nil
}

func (r *NoteRepository) ListAll(ctx context.Context) ([]domain.ClientNote, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, client_id, note_type, content FROM client_notes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.ClientNote
	for rows.Next() {
		var note domain.ClientNote
		if err := rows.Scan(&note.ID, &note.ClientID, &note.NoteType, &note.Content); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id int) (*domain.ClientNote, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, client_id, note_type, content FROM client_notes WHERE id = $1`, id)

	var note domain.ClientNote
	err := row.Scan(&note.ID, &note.ClientID, &note.NoteType, &note.Content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get note", fmt.Errorf("note %d", id))
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}
	return &note, nil
}

func (r *NoteRepository) ReassignClient(ctx context.Context, noteID, clientID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE client_notes SET client_id = $1 WHERE id = $2`, clientID, noteID)
	if err != nil {
		return fmt.Errorf("reassign note client: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reassign note rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "reassign note", fmt.Errorf("note %d", noteID))
	}
	return nil
}
