package index

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sync"

	"github.com/starford/berkana/internal/checksum"
	"github.com/starford/berkana/internal/storage"
)

// Importer imports one export payload and returns how many notes it stored.
type Importer func(data []byte) (int, error)

// Ledger remembers which payloads were already imported.
type Ledger interface {
	HasImport(checksum string) (bool, error)
	RecordImport(checksum, path string, count int) error
}

// Verify *DB satisfies Ledger at compile time.
var _ Ledger = (*DB)(nil)

// MemLedger is an in-process Ledger used when the SQLite mirror is off.
type MemLedger struct {
	mu   sync.Mutex
	seen map[string]string
}

// NewMemLedger returns an empty MemLedger.
func NewMemLedger() *MemLedger {
	return &MemLedger{seen: make(map[string]string)}
}

// HasImport implements Ledger.
func (l *MemLedger) HasImport(cs string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[cs]
	return ok, nil
}

// RecordImport implements Ledger.
func (l *MemLedger) RecordImport(cs, p string, _ int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[cs] = p
	return nil
}

// EventCallback is called after an inbox file has been handled. kind is
// "imported", "duplicate" or "failed".
type EventCallback func(kind, path string, notes int)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// Inbox imports export files dropped into a vault directory. Handled files
// are moved to processed/ (or failed/ when the payload is rejected) so each
// file is looked at once. Payloads imported before are deleted.
type Inbox struct {
	files    storage.Provider
	dir      string // relative to the vault root
	importer Importer
	ledger   Ledger
	logger   *slog.Logger
	cb       EventCallback

	mu sync.Mutex // serializes Process
}

// NewInbox returns an Inbox for dir (relative to the vault root).
func NewInbox(files storage.Provider, dir string, importer Importer, ledger Ledger, logger *slog.Logger, cb EventCallback) *Inbox {
	if ledger == nil {
		ledger = NewMemLedger()
	}
	return &Inbox{files: files, dir: dir, importer: importer, ledger: ledger, logger: logger, cb: cb}
}

// Dir returns the absolute inbox directory.
func (in *Inbox) Dir() (string, error) {
	return in.files.Abs(in.dir)
}

// Scan handles every .json file currently in the inbox.
func (in *Inbox) Scan() error {
	files, err := in.files.List(in.dir, ".json")
	if err != nil {
		return fmt.Errorf("index: scan inbox: %w", err)
	}
	for _, f := range files {
		in.process(f.Path, f.Checksum)
	}
	return nil
}

// Process handles one inbox file given by its path relative to the vault
// root.
func (in *Inbox) Process(rel string) {
	in.process(rel, "")
}

func (in *Inbox) process(rel, cs string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	data, err := in.files.Read(rel)
	if err != nil {
		// Already moved by an earlier event.
		in.logger.Debug("inbox: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if cs == "" {
		cs = checksum.Sum(data)
	}

	seen, err := in.ledger.HasImport(cs)
	if err != nil {
		in.logger.Warn("inbox: ledger lookup failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
	if seen {
		// The first copy already sits in processed/.
		in.logger.Debug("inbox: already imported, removing", slog.String("path", rel))
		if err := in.files.Delete(rel); err != nil {
			in.logger.Warn("inbox: remove duplicate failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
		in.notify("duplicate", rel, 0)
		return
	}

	n, err := in.importer(data)
	if err != nil {
		in.logger.Warn("inbox: import failed", slog.String("path", rel), slog.String("error", err.Error()))
		in.move(rel, failedDir)
		in.notify("failed", rel, 0)
		return
	}
	if err := in.ledger.RecordImport(cs, rel, n); err != nil {
		in.logger.Warn("inbox: record import failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
	in.move(rel, processedDir)
	in.logger.Info("inbox: imported", slog.String("path", rel), slog.Int("notes", n))
	in.notify("imported", rel, n)
}

func (in *Inbox) move(rel, sub string) {
	dst := path.Join(filepath.ToSlash(in.dir), sub, filepath.Base(rel))
	if err := in.files.Move(rel, dst); err != nil {
		in.logger.Warn("inbox: move failed", slog.String("path", rel), slog.String("to", dst), slog.String("error", err.Error()))
	}
}

func (in *Inbox) notify(kind, rel string, n int) {
	if in.cb != nil {
		in.cb(kind, rel, n)
	}
}
