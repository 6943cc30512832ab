package rowsource

// Test Plan for Row Sources:
// - SQL source yields the header and rows in query order
// - SQL source converts []byte cells to strings and keeps NULL as nil
// - SQL source rewrites placeholders for the configured format
// - slice rows iterate once and hand out copies
// - Count and Collect drain an iterator
// - Open rejects unknown drivers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE T (ID INTEGER, NAME TEXT, CODE BLOB, AMOUNT REAL);
		INSERT INTO T VALUES (1, 'one', CAST('00123' AS BLOB), 1.5);
		INSERT INTO T VALUES (2, NULL, NULL, NULL);
	`)
	require.NoError(t, err)
	return db
}

func TestSQLSource(t *testing.T) {
	t.Parallel()

	src := NewSQL(newTestDB(t), squirrel.Question)
	q := squirrel.Select("ID", "NAME", "CODE", "AMOUNT").From("T").Where(squirrel.GtOrEq{"ID": 1}).OrderBy("ID")

	rows, err := src.Query(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, Header{"ID", "NAME", "CODE", "AMOUNT"}, rows.Header())

	got, err := Collect(rows)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Row{int64(1), "one", "00123", 1.5}, got[0])
	assert.Equal(t, Row{int64(2), nil, nil, nil}, got[1])
}

func TestSQLSourceExprArgs(t *testing.T) {
	t.Parallel()

	src := NewSQL(newTestDB(t), nil)
	rows, err := src.Query(context.Background(), squirrel.Expr("SELECT NAME FROM T WHERE ID = ?", 1))
	require.NoError(t, err)

	n, err := Count(rows)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLSourceBadQuery(t *testing.T) {
	t.Parallel()

	src := NewSQL(newTestDB(t), nil)
	_, err := src.Query(context.Background(), squirrel.Expr("SELECT * FROM MISSING"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute query")
}

func TestSliceRows(t *testing.T) {
	t.Parallel()

	rows := NewSliceRows(Header{"A"}, []Row{{"x"}, {"y"}})
	require.True(t, rows.Next())
	r := rows.Row()
	r[0] = "mutated"
	assert.Equal(t, Row{"x"}, rows.Row(), "Row should return a copy")

	require.True(t, rows.Next())
	assert.Equal(t, Row{"y"}, rows.Row())
	assert.False(t, rows.Next())
	assert.False(t, rows.Next())
	assert.NoError(t, rows.Err())
}

func TestHeaderIndex(t *testing.T) {
	t.Parallel()

	h := Header{"A", "B"}
	assert.Equal(t, 1, h.Index("B"))
	assert.Equal(t, -1, h.Index("C"))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := Open("oracle", "x")
	require.Error(t, err)
	assert.False(t, Supported("oracle"))
	assert.True(t, Supported("postgres"))
	assert.Contains(t, Drivers(), "duckdb")
}
