// Package repository contains the data access logic for users, restaurants,
// categories and menu items.  Repositories speak plain SQL with `?`
// placeholders so the same code runs against MySQL and SQLite.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when the addressed row does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would violate a unique key, such as
// a duplicate username or a duplicate category name within a restaurant.
// Handlers translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is the MySQL error number for unique key violations.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullUint(p *uint64) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func uintPtr(ni sql.NullInt64) *uint64 {
	if !ni.Valid {
		return nil
	}
	v := uint64(ni.Int64)
	return &v
}
