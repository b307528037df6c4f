package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
)

func newNoteRepoWithMock(t *testing.T) (*NoteRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &NoteRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestNoteListRefs(t *testing.T) {
	repo, mock, done := newNoteRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "client_id"}).
		AddRow(1, 1).
		AddRow(6, 4)
	mock.ExpectQuery(`SELECT id, client_id FROM client_notes`).
		WillReturnRows(rows)

	refs, err := repo.ListRefs(context.Background())
	if err != nil {
		t.Fatalf("ListRefs() error = %v", err)
	}
	if len(refs) != 2 || refs[1].ClientID != 4 {
		t.Fatalf("unexpected refs: %+v", refs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestNoteGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newNoteRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`FROM client_notes WHERE id = \$1`).
		WithArgs(404).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReassignClientReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newNoteRepoWithMock(t)
	defer done()

	mock.ExpectExec(`UPDATE client_notes SET client_id`).
		WithArgs(4, 404).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ReassignClient(context.Background(), 404, 4)
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReassignClientUpdatesRow(t *testing.T) {
	repo, mock, done := newNoteRepoWithMock(t)
	defer done()

	mock.ExpectExec(`UPDATE client_notes SET client_id`).
		WithArgs(4, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ReassignClient(context.Background(), 2, 4); err != nil {
		t.Fatalf("ReassignClient() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
