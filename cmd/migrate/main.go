// Command migrate applies schema migrations to the arena database.
//
// It reads the database section of the same configuration file the daemon
// uses, so a deployment never has to keep a second copy of its credentials
// in sync.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/viper"

	"github.com/duskforge/arena/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	source := flag.String("source", "file://migrations", "migration source URL")
	flag.Parse()

	if err := run(*configPath, *source, *direction, *steps); err != nil {
		log.Fatal(err)
	}
}

func run(configPath, source, direction string, steps int) error {
	dbCfg, err := loadDatabaseConfig(configPath)
	if err != nil {
		return err
	}

	m, err := migrate.New(source, dbCfg.DSN())
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("invalid direction %q: must be 'up' or 'down'", direction)
	}

	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, _ := m.Version()
	if noChange {
		fmt.Fprintf(os.Stdout, "already at version %d (dirty=%v)\n", version, dirty)
	} else {
		fmt.Fprintf(os.Stdout, "migrated %s to version %d (dirty=%v)\n", direction, version, dirty)
	}
	return nil
}

func loadDatabaseConfig(path string) (config.DatabaseConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var dbCfg config.DatabaseConfig
	sub := v.Sub("database")
	if sub == nil {
		return config.DatabaseConfig{}, fmt.Errorf("config %s has no database section", path)
	}
	if err := sub.Unmarshal(&dbCfg); err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("parsing database config: %w", err)
	}
	return dbCfg, nil
}
