package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"stablecoin-risk-monitor/internal/storage/migrations"
)

// sharedPool is one migrated database for the whole package; nil under -short.
var sharedPool *Pool

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, pool, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres test container: %v\n", err)
		os.Exit(1)
	}
	sharedPool = pool

	code := m.Run()

	pool.Close()
	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "terminate container: %v\n", err)
	}
	os.Exit(code)
}

func startPostgres(ctx context.Context) (*tcpostgres.PostgresContainer, *Pool, error) {
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("risk"),
		tcpostgres.WithUsername("risk"),
		tcpostgres.WithPassword("risk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	pool, err := NewPool(ctx, dsn, WithMaxConns(4))
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	return container, pool, nil
}

// testPool returns the shared pool with both tables emptied.
func testPool(t *testing.T) *Pool {
	t.Helper()
	if sharedPool == nil {
		t.Skip("skipping integration test in short mode")
	}
	_, err := sharedPool.Exec(context.Background(), "TRUNCATE transactions, scoring_runs")
	require.NoError(t, err)
	return sharedPool
}

func ptr[T any](v T) *T {
	return &v
}
