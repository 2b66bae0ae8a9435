package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/berkana/internal"
	"github.com/starford/berkana/internal/notestore"
	pkgconfig "github.com/starford/berkana/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Export(ctx, cmd.String("output"), cmd.StringSlice("id"), internal.WithConfig(cfg))
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("import: file argument is required (use - for stdin)")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	imp := notestore.ImportOptions{
		Overwrite:      cfg.Store.Import.Overwrite,
		GenerateNewIDs: cfg.Store.Import.GenerateNewIDs,
	}
	if cmd.IsSet("overwrite") {
		imp.Overwrite = cmd.Bool("overwrite")
	}
	if cmd.IsSet("new-ids") {
		imp.GenerateNewIDs = cmd.Bool("new-ids")
	}

	n, err := internal.Import(ctx, path, imp, internal.WithConfig(cfg))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "imported %d notes\n", n)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "berkana",
		Usage:  "Contact notes with wikilinks, topics, journal and a relationship graph",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the import inbox watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMCP,
			},
			{
				Name:   "export",
				Usage:  "Export notes as a JSON envelope",
				Action: runExport,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file, - for stdout; defaults to the vault export directory",
					},
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Note id to export (repeatable); all notes when omitted",
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import a JSON export envelope",
				ArgsUsage: "<file|->",
				Action:    runImport,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Replace notes whose id already exists",
					},
					&cli.BoolFlag{
						Name:  "new-ids",
						Usage: "Import every note under a fresh id",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
