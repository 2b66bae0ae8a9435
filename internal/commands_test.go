package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/berkana/internal/notestore"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(dir, "vault")
	cfg.SQLite.Path = filepath.Join(dir, "berkana.db")
	return cfg
}

const payload = `{"version":"1.0","notes":[
	{"id":"n1","contactId":"ana","authorContactId":"me","content":"see [[Bo]]"},
	{"id":"n2","contactId":"bo","authorContactId":"me","content":"hello"}
]}`

func TestImportThenExport_PersistsThroughMirror(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	var logs bytes.Buffer

	in := filepath.Join(t.TempDir(), "in.json")
	if err := os.WriteFile(in, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := Import(ctx, in, notestore.ImportOptions{}, WithConfig(cfg), WithLogOutput(&logs))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("imported = %d, want 2", n)
	}

	// A second process sees the notes restored from SQLite.
	out := filepath.Join(t.TempDir(), "out.json")
	if err := Export(ctx, out, nil, WithConfig(cfg), WithLogOutput(&logs)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	// n1, n2 and the stub created for [[Bo]].
	if !bytes.Contains(data, []byte(`"noteCount": 3`)) {
		t.Errorf("export = %s", data)
	}
	if logs.Len() == 0 {
		t.Error("expected JSON logs")
	}
}

func TestExport_ToVault(t *testing.T) {
	cfg := testConfig(t)
	cfg.SQLite.Enabled = false

	if err := Export(context.Background(), "", nil, WithConfig(cfg), WithLogOutput(&bytes.Buffer{})); err != nil {
		t.Fatal(err)
	}
	matches, _ := filepath.Glob(filepath.Join(cfg.Vault.Path, cfg.Vault.ExportDir, "berkana-export-*.json"))
	if len(matches) != 1 {
		t.Errorf("export files = %v, want one", matches)
	}
}

func TestSetup_RequiresConfig(t *testing.T) {
	if _, err := Import(context.Background(), "x.json", notestore.ImportOptions{}); err == nil {
		t.Error("expected error without config")
	}
}
