package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BrainAnnex/neoaccess/internal/config"
	"github.com/BrainAnnex/neoaccess/internal/graph"
	"github.com/BrainAnnex/neoaccess/internal/schema"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

const usage = `usage: neoaccess <command> [flags]

commands:
  status       check database connectivity and report node counts
  init-schema  create the reserved schema namespaces
  export       dump the whole database as JSON (requires APOC)
  serve-mcp    expose the graph tools over MCP
`

func run(args []string) error {
	fs := flag.NewFlagSet("neoaccess", flag.ContinueOnError)
	configDir := fs.String("config-dir", ".", "directory holding neoaccess.yml")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(version)
		return nil
	}
	if fs.NArg() == 0 {
		fmt.Print(usage)
		return nil
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "status":
		return withEngine(ctx, cfg, func(e *schema.Engine) error {
			return runStatus(ctx, e)
		})
	case "init-schema":
		return withEngine(ctx, cfg, func(e *schema.Engine) error {
			return runInitSchema(ctx, e)
		})
	case "export":
		return withEngine(ctx, cfg, func(e *schema.Engine) error {
			return runExport(ctx, e, rest)
		})
	case "serve-mcp":
		return withEngine(ctx, cfg, func(e *schema.Engine) error {
			return runServeMCP(ctx, e, cfg.Server.Port)
		})
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

// withEngine connects to the configured database, runs fn, and closes the
// connection afterwards.
func withEngine(ctx context.Context, cfg *config.Settings, fn func(*schema.Engine) error) error {
	drv, err := graph.NewNeo4jDriver(ctx, graph.Neo4jConfig{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
	})
	if err != nil {
		return err
	}
	defer drv.Close(ctx)

	return fn(schema.NewEngine(graph.New(drv)))
}
