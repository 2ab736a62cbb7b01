// Package migrations embeds the schema of the run ledger (PostgreSQL) and
// of the scored-row table (ClickHouse) and applies it at startup.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed postgres/*.sql clickhouse/*.sql
var schemaFS embed.FS

// Dialect selects one embedded schema directory.
type Dialect string

const (
	Postgres   Dialect = "postgres"
	Clickhouse Dialect = "clickhouse"
)

// Migration is one embedded SQL file.
type Migration struct {
	Name string
	SQL  string
}

// Load returns the dialect's migrations ordered by file name. Blank files
// are skipped.
func Load(d Dialect) ([]Migration, error) {
	entries, err := fs.ReadDir(schemaFS, string(d))
	if err != nil {
		return nil, fmt.Errorf("read %s migrations: %w", d, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(schemaFS, path.Join(string(d), name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, Migration{Name: name, SQL: string(data)})
	}
	return out, nil
}
