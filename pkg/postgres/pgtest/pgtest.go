// Package pgtest starts a throwaway PostgreSQL container for integration tests.
package pgtest

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Astemirdum/bookshelf/pkg/postgres"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
	container testcontainers.Container
)

// New returns a pool on a shared, migrated container. The container is
// started once per test binary and removed by Terminate from TestMain;
// the pool is closed on test cleanup.
func New(t *testing.T, migrations fs.FS) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}

	once.Do(func() {
		sharedDSN, initErr = start(migrations)
	})
	if initErr != nil {
		t.Fatalf("pgtest: setup db: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, sharedDSN)
	if err != nil {
		t.Fatalf("pgtest: pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func start(migrations fs.FS) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "library",
			"POSTGRES_PASSWORD": "library",
			"POSTGRES_DB":       "library",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}
	var err error
	container, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("mapped port: %w", err)
	}

	cfg := postgres.DB{
		Host:     host,
		Port:     port.Port(),
		Username: "library",
		Password: "library",
		NameDB:   "library",
		SSLMode:  "disable",
	}
	if err := postgres.Migrate(ctx, cfg.DSN(), migrations); err != nil {
		return "", err
	}
	return cfg.DSN(), nil
}

// Terminate removes the shared container if one was started. Call it from
// TestMain after m.Run.
func Terminate() error {
	if container == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := container.Terminate(ctx)
	container = nil
	return err
}
