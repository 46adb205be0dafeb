package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/sowilo/internal"
	"github.com/starford/sowilo/internal/mcpserver"
	"github.com/starford/sowilo/internal/recordservice"
	pkgconfig "github.com/starford/sowilo/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// batch runs fn with logs on stderr so stdout carries only the result.
func batch(fn func(ctx context.Context, cmd *cli.Command, svc *recordservice.Service) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return internal.Exec(ctx, func(ctx context.Context, svc *recordservice.Service) error {
			return fn(ctx, cmd, svc)
		}, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func docArg(cmd *cli.Command) (string, error) {
	p := cmd.Args().First()
	if p == "" {
		return "", fmt.Errorf("%s: document path is required", cmd.Name)
	}
	return p, nil
}

func rebuild(ctx context.Context, cmd *cli.Command, svc *recordservice.Service) error {
	sum, err := svc.Rebuild(ctx, cmd.String("folder"))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "rebuilt %d folder(s): %d document(s), %d written, %d removed, %d failed\n",
		len(sum.Folders), sum.Documents, len(sum.Written), len(sum.Removed), len(sum.Failures))
	for _, f := range sum.Failures {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Path, f.Error)
	}
	if err := printJSON(sum); err != nil {
		return err
	}
	if len(sum.Failures) > 0 {
		return fmt.Errorf("rebuild: %d document(s) failed", len(sum.Failures))
	}
	return nil
}

func publish(ctx context.Context, cmd *cli.Command, svc *recordservice.Service) error {
	p, err := docArg(cmd)
	if err != nil {
		return err
	}
	diff, err := svc.Publish(ctx, p)
	if err != nil {
		return err
	}
	return printJSON(diff)
}

func draft(ctx context.Context, cmd *cli.Command, svc *recordservice.Service) error {
	p, err := docArg(cmd)
	if err != nil {
		return err
	}
	res, err := svc.Draft(ctx, p)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func parse(ctx context.Context, cmd *cli.Command, svc *recordservice.Service) error {
	p, err := docArg(cmd)
	if err != nil {
		return err
	}
	rec, err := svc.Parse(ctx, p)
	if err != nil {
		return err
	}
	return printJSON(rec)
}

func serveMCP(_ context.Context, _ *cli.Command, svc *recordservice.Service) error {
	return mcpserver.New(svc).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "sowilo",
		Usage:  "Export a Markdown vault as syntax-tree artifacts and per-folder indexes",
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
				Usage:  "Start the HTTP API and event stream",
				Action: serve,
			},
			{
				Name:  "rebuild",
				Usage: "Re-export every document and rewrite the folder indexes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "folder",
						Usage: "Rebuild a single base folder",
					},
				},
				Action: batch(rebuild),
			},
			{
				Name:      "publish",
				Usage:     "Export one document and update its folder index",
				ArgsUsage: "<path>",
				Action:    batch(publish),
			},
			{
				Name:      "draft",
				Usage:     "Export one document as a draft",
				ArgsUsage: "<path>",
				Action:    batch(draft),
			},
			{
				Name:      "parse",
				Usage:     "Print the export record of one document without writing it",
				ArgsUsage: "<path>",
				Action:    batch(parse),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: batch(serveMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
