package migrations

import (
	"context"
	"fmt"
	"strings"
)

// ClickhouseExecer is satisfied by *clickhouse.Conn.
type ClickhouseExecer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// RunClickhouseMigrations applies the embedded ClickHouse schema one
// statement at a time; the native driver rejects multi-statement Exec.
// The target database must already exist.
func RunClickhouseMigrations(ctx context.Context, conn ClickhouseExecer) error {
	migs, err := Load(Clickhouse)
	if err != nil {
		return err
	}

	for _, m := range migs {
		stmts, err := splitStatements(m.SQL)
		if err != nil {
			return fmt.Errorf("parse migration %s: %w", m.Name, err)
		}
		for i, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s statement %d: %w", m.Name, i+1, err)
			}
		}
	}
	return nil
}

// splitStatements cuts sql on semicolons outside single-quoted literals
// and drops -- line comments. Block comments are not supported.
func splitStatements(sql string) ([]string, error) {
	var (
		stmts    []string
		cur      strings.Builder
		inString bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case inString:
			cur.WriteByte(ch)
			if ch == '\'' {
				// '' is an escaped quote
				if i+1 < len(sql) && sql[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
					continue
				}
				inString = false
			}
		case ch == '\'':
			inString = true
			cur.WriteByte(ch)
		case ch == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')
		case ch == ';':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	if inString {
		return nil, fmt.Errorf("unterminated string literal")
	}
	flush()
	return stmts, nil
}
