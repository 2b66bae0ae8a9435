// Package testutil provides shared test helpers for setting up vaults,
// databases and note services.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/berkana/internal/index"
	"github.com/starford/berkana/internal/noteservice"
	"github.com/starford/berkana/internal/notestore"
	"github.com/starford/berkana/internal/storage"
)

// ContactZero is the "self" contact of stores built by TestService.
const ContactZero = "me"

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "berkana-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	files, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, files
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestService returns a note service over an empty in-memory store with a
// temporary vault for exports.
func TestService(t *testing.T) *noteservice.Service {
	t.Helper()
	_, files := TestVault(t)
	return noteservice.NewService(
		notestore.New(notestore.WithContactZero(ContactZero)),
		noteservice.WithFiles(files, "exports"),
		noteservice.WithLogger(DiscardLogger()),
	)
}

// MirroredService is TestService with every store change written to a
// temporary SQLite mirror.
func MirroredService(t *testing.T) (*noteservice.Service, *index.DB) {
	t.Helper()
	svc := TestService(t)
	db := TestDB(t)
	svc.Store().Subscribe(index.Follow(db, DiscardLogger()))
	return svc, db
}
