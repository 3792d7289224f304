package postgres

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// newMockStore builds a Store backed by sqlmock for repository tests.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	return &Store{db: db}, mock
}
