package rowsource

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/Masterminds/squirrel"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// placeholders maps each supported driver to its bind parameter syntax.
var placeholders = map[string]squirrel.PlaceholderFormat{
	"sqlite3":  squirrel.Question,
	"mysql":    squirrel.Question,
	"duckdb":   squirrel.Question,
	"postgres": squirrel.Dollar,
}

// Drivers lists the supported driver names.
func Drivers() []string {
	names := make([]string, 0, len(placeholders))
	for name := range placeholders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Supported reports whether driver can be passed to Open.
func Supported(driver string) bool {
	_, ok := placeholders[driver]
	return ok
}

// Open connects to a planning repository and verifies the connection.
func Open(driver, dsn string) (*SQL, error) {
	format, ok := placeholders[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	return NewSQL(db, format), nil
}
