package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hitoshi/clubboard/internal/model"
)

func TestPostgresSessionRepo_CreateAndFind(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	now := time.Now()
	session := &model.Session{ID: "abc", UserID: 1, ExpiresAt: now.Add(time.Hour), CreatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions (id, user_id, expires_at, created_at)`)).
		WithArgs("abc", int64(1), session.ExpiresAt, session.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND expires_at > now()`)).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at"}).
			AddRow("abc", int64(1), session.ExpiresAt, session.CreatedAt))

	if err := repo.Create(context.Background(), session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := repo.FindByID(context.Background(), "abc")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got == nil || got.UserID != 1 {
		t.Errorf("FindByID() = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSessionRepo_FindByID_ExpiredReturnsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions`)).
		WithArgs("expired").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at"}))

	got, err := repo.FindByID(context.Background(), "expired")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestPostgresSessionRepo_DeleteOthersByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE user_id = $1 AND id <> $2`)).
		WithArgs(int64(5), "current").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteOthersByUserID(context.Background(), 5, "current")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
