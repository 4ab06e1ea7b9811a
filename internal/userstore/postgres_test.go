package userstore

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresStoreGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT value FROM user_records").
		WithArgs(OnboardingKey("u1")).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(OnboardingDone))

	store := NewPostgresStore(mock)
	value, err := store.Get(context.Background(), OnboardingKey("u1"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != OnboardingDone {
		t.Errorf("expected %q, got %q", OnboardingDone, value)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT value FROM user_records").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	store := NewPostgresStore(mock)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStoreSetUpserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO user_records").
		WithArgs(APIAssignmentKey("u1"), `{"userId":"u1"}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := NewPostgresStore(mock)
	if err := store.Set(context.Background(), APIAssignmentKey("u1"), `{"userId":"u1"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreSetAndDeleteTransactional(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO user_records").
		WithArgs(OnboardingKey("u1"), OnboardingDone).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM user_records").
		WithArgs(SignupPayloadKey).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	store := NewPostgresStore(mock)
	if err := store.SetAndDelete(context.Background(), OnboardingKey("u1"), OnboardingDone, SignupPayloadKey); err != nil {
		t.Fatalf("SetAndDelete: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreSetAndDeleteRollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO user_records").
		WithArgs(OnboardingKey("u1"), OnboardingDone).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	store := NewPostgresStore(mock)
	if err := store.SetAndDelete(context.Background(), OnboardingKey("u1"), OnboardingDone, SignupPayloadKey); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
