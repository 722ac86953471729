package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// dialect captures the per-backend differences in DDL and error reporting.
// Queries are written with '?' placeholders and rebound by sqlx.
type dialect struct {
	driver   string
	idType   string
	strType  string
	textType string
	timeType string
	intType  string
}

var dialects = map[string]dialect{
	"sqlite": {
		driver:   "sqlite",
		idType:   "TEXT",
		strType:  "TEXT",
		textType: "TEXT",
		timeType: "DATETIME",
		intType:  "INTEGER",
	},
	"postgres": {
		driver:   "postgres",
		idType:   "VARCHAR(36)",
		strType:  "VARCHAR(255)",
		textType: "TEXT",
		timeType: "TIMESTAMPTZ",
		intType:  "BIGINT",
	},
	"mysql": {
		driver:   "mysql",
		idType:   "VARCHAR(36)",
		strType:  "VARCHAR(255)",
		textType: "TEXT",
		timeType: "DATETIME(6)",
		intType:  "BIGINT",
	},
}

// render substitutes column type tokens in a DDL statement.
func (d dialect) render(ddl string) string {
	return strings.NewReplacer(
		"{id}", d.idType,
		"{str}", d.strType,
		"{text}", d.textType,
		"{time}", d.timeType,
		"{int}", d.intType,
	).Replace(ddl)
}

// normalizeDSN applies driver options the store depends on.
func (d dialect) normalizeDSN(dsn string) (string, error) {
	if d.driver != "mysql" {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	// Report matched rather than changed rows so a zero RowsAffected
	// always means the row is missing.
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// isForeignKeyViolation reports whether err was raised because a referenced
// row does not exist.
func (d dialect) isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1452
	}

	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// isUniqueViolation reports whether err was raised by a unique constraint.
func (d dialect) isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
