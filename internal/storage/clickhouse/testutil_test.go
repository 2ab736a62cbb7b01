package clickhouse

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"stablecoin-risk-monitor/internal/storage/migrations"
)

// sharedConn is one migrated database for the whole package; nil under -short.
var sharedConn *Conn

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, conn, err := startClickhouse(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "clickhouse test container: %v\n", err)
		os.Exit(1)
	}
	sharedConn = conn

	code := m.Run()

	_ = conn.Close()
	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "terminate container: %v\n", err)
	}
	os.Exit(code)
}

func startClickhouse(ctx context.Context) (testcontainers.Container, *Conn, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.8-alpine",
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"CLICKHOUSE_SKIP_USER_SETUP": "1",
			},
			WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	port, err := container.MappedPort(ctx, "9000")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	dsn := fmt.Sprintf("clickhouse://%s:%s/risk_test", host, port.Port())
	if err := EnsureDatabase(ctx, dsn); err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	conn, err := NewConn(ctx, dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	return container, conn, nil
}

// testConn returns the shared connection with risk_scores emptied.
func testConn(t *testing.T) *Conn {
	t.Helper()
	if sharedConn == nil {
		t.Skip("skipping integration test in short mode")
	}
	require.NoError(t, sharedConn.Exec(context.Background(), "TRUNCATE TABLE risk_scores"))
	return sharedConn
}
