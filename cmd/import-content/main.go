// Command import-content loads YAML content files (ranks, monsters, items,
// equipment, spells) into the record store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/duskforge/arena/internal/config"
	"github.com/duskforge/arena/internal/importer"
	"github.com/duskforge/arena/internal/observability"
	"github.com/duskforge/arena/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	contentDir := flag.String("content", "", "path to the content directory")
	flag.Parse()

	if *contentDir == "" {
		fmt.Fprintln(os.Stderr, "usage: import-content -content <dir> [-config <file>]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	start := time.Now()
	if err := importer.New(postgres.NewRecordRepository(pool.DB()), logger).Run(ctx, *contentDir); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("import complete in %s\n", time.Since(start).Round(time.Millisecond))
}
