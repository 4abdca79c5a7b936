package database

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect names a supported SQL flavour.  Its value is also the
// database/sql driver name.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// ParseDialect maps a DB_DRIVER value to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	}
	return "", fmt.Errorf("unsupported db driver %q", s)
}

// Rebind rewrites '?' placeholders into the dialect's bind syntax.
// Queries are written once with '?' and rebound for Postgres ($1, $2...).
// Question marks inside quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// Placeholders returns "?, ?, ..." with n markers for IN lists and
// multi-row VALUES.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// InsertIgnore builds a multi-row INSERT that silently skips rows hitting
// a unique key.  cols is the parenthesised column list, e.g.
// "(show_id, seat_label, status)".
func (d Dialect) InsertIgnore(table, cols string, rows, perRow int) string {
	var b strings.Builder
	if d == Postgres {
		b.WriteString("INSERT INTO ")
	} else {
		b.WriteString("INSERT IGNORE INTO ")
	}
	b.WriteString(table)
	b.WriteString(" ")
	b.WriteString(cols)
	b.WriteString(" VALUES ")
	row := "(" + Placeholders(perRow) + ")"
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(row)
	}
	if d == Postgres {
		b.WriteString(" ON CONFLICT DO NOTHING")
	}
	return d.Rebind(b.String())
}
