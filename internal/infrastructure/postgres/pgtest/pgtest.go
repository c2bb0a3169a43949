// Package pgtest starts a migrated PostgreSQL database for integration tests.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iho/oilledger/internal/infrastructure/postgres"
)

// EnvEnable turns the integration tests on. EnvDatabaseURL points them at an
// existing database instead of a container.
const (
	EnvEnable      = "OILLEDGER_INTEGRATION"
	EnvDatabaseURL = "OILLEDGER_TEST_DATABASE_URL"
)

// TestDB is a migrated database shared by one test.
type TestDB struct {
	Pool *pgxpool.Pool
	URL  string
	t    *testing.T
}

// New returns a migrated database or skips the test when integration tests
// are disabled.
func New(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv(EnvEnable) == "" {
		t.Skipf("skipping integration test: %s is not set", EnvEnable)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	dbURL := os.Getenv(EnvDatabaseURL)
	if dbURL == "" {
		var err error
		dbURL, err = startContainer(ctx, t)
		if err != nil {
			t.Fatalf("starting postgres container: %v", err)
		}
	}

	if err := postgres.RunMigrations(dbURL, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dbURL, 20, 0)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	db := &TestDB{Pool: pool, URL: dbURL, t: t}
	db.TruncateAll(ctx)

	return db
}

func startContainer(ctx context.Context, t *testing.T) (string, error) {
	c, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("oilledger"),
		tcpostgres.WithUsername("oilledger"),
		tcpostgres.WithPassword("oilledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return "", fmt.Errorf("run container: %w", err)
	}

	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	connStr, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", fmt.Errorf("connection string: %w", err)
	}

	return connStr, nil
}

// TruncateAll removes all data and resets the company account and id counters.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE balance_change_logs, treasury_movements, vehicle_movements,
			sales, purchases, oil_types, drivers, clients, id_sequences, activity_logs RESTART IDENTITY CASCADE;
		UPDATE company_accounts SET balance = 0;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}
