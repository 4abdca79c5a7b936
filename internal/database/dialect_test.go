package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := `UPDATE show_seats SET status = 'booked' WHERE show_id = ? AND seat_label = ? AND status = 'available?'`
	assert.Equal(t, q, MySQL.Rebind(q))
	assert.Equal(t,
		`UPDATE show_seats SET status = 'booked' WHERE show_id = $1 AND seat_label = $2 AND status = 'available?'`,
		Postgres.Rebind(q))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("")
	require.NoError(t, err)
	assert.Equal(t, MySQL, d)

	d, err = ParseDialect("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	_, err = ParseDialect("sqlite")
	assert.Error(t, err)
}

func TestPlaceholdersAndDSN(t *testing.T) {
	assert.Equal(t, "?, ?, ?", Placeholders(3))
	assert.Equal(t, "", Placeholders(0))

	dsn, err := Config{Driver: MySQL, User: "app", Host: "db", Port: "3306", Name: "seats"}.DSN()
	require.NoError(t, err)
	assert.Equal(t, "app@tcp(db:3306)/seats?charset=utf8mb4&parseTime=true&loc=UTC", dsn)

	dsn, err = Config{Driver: Postgres, User: "app", Pass: "pw", Host: "db", Port: "5432", Name: "seats"}.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:pw@db:5432/seats?sslmode=disable", dsn)
}

func TestInsertIgnore(t *testing.T) {
	assert.Equal(t,
		"INSERT IGNORE INTO show_seats (show_id, seat_label) VALUES (?, ?), (?, ?)",
		MySQL.InsertIgnore("show_seats", "(show_id, seat_label)", 2, 2))
	assert.Equal(t,
		"INSERT INTO show_seats (show_id, seat_label) VALUES ($1, $2), ($3, $4) ON CONFLICT DO NOTHING",
		Postgres.InsertIgnore("show_seats", "(show_id, seat_label)", 2, 2))
}
