// Package testutil starts throwaway PostgreSQL containers for storage tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/duskforge/arena/internal/config"
	"github.com/duskforge/arena/internal/storage/postgres"
)

const (
	postgresImage = "postgres:16-alpine"
	testUser      = "arena_test"
	testDB        = "arena_test"
)

// recordsSchema mirrors the migrations so tests do not need the migrate
// binary on the path.
const recordsSchema = `
	CREATE TABLE IF NOT EXISTS records (
		kind       VARCHAR(32)  NOT NULL,
		key        VARCHAR(128) NOT NULL,
		data       JSONB        NOT NULL,
		created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		PRIMARY KEY (kind, key)
	);
	CREATE INDEX IF NOT EXISTS idx_records_kind ON records (kind);
`

// NewPool boots a PostgreSQL container, applies the records schema, and
// returns a connected pool. The container and pool are torn down through
// t.Cleanup. Docker must be available or the test fails immediately.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     testUser,
				"POSTGRES_PASSWORD": testUser,
				"POSTGRES_DB":       testDB,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("resolving container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("resolving mapped port: %v", err)
	}

	pool, err := postgres.NewPool(ctx, config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            testUser,
		Password:        testUser,
		Name:            testDB,
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("connecting to test postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.DB().Exec(ctx, recordsSchema); err != nil {
		t.Fatalf("applying records schema: %v", err)
	}

	return pool.DB()
}
