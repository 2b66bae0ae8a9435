package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/berkana/internal/mcpserver"
	"github.com/starford/berkana/internal/notestore"
)

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	_, c, err := setup(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	defer c.Close()

	c.logger.Info("MCP server starting", slog.Int("notes", c.store.Len()))
	if err := mcpserver.New(c.svc).ServeStdio(); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

// Export writes the export envelope of ids (all notes when ids is empty)
// to out. "-" writes to stdout and an empty out writes a timestamped file
// into the vault's export directory.
func Export(ctx context.Context, out string, ids []string, opts ...Option) error {
	_, c, err := setup(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	defer c.Close()

	if len(ids) == 0 {
		ids = nil
	}

	if out == "" {
		rel, err := c.svc.ExportToVault(ctx, ids)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, rel)
		return nil
	}

	data, err := c.svc.Export(ctx, ids)
	if err != nil {
		return err
	}
	if out == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", out, err)
	}
	c.logger.Info("export written", slog.String("path", out), slog.Int("bytes", len(data)))
	return nil
}

// Import reads an export envelope from path ("-" for stdin) and imports it
// with imp. It returns the number of notes imported.
func Import(ctx context.Context, path string, imp notestore.ImportOptions, opts ...Option) (int, error) {
	_, c, err := setup(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return 0, err
	}
	defer c.Close()

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return 0, fmt.Errorf("import: read %s: %w", path, err)
	}

	notes, err := c.svc.Import(ctx, data, imp)
	if err != nil {
		return 0, err
	}
	return len(notes), nil
}
