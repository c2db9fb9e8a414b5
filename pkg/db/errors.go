package db

import "strings"

const pgUniquePhrase = "duplicate key value violates unique constraint"

// IsUniqueViolation reports whether the provided error is a unique constraint
// violation, matching both the Postgres and SQLite phrasings so repository
// tests behave like production. A non-empty constraintName narrows the
// Postgres match to that constraint; SQLite errors name table.column rather
// than the index, so the name cannot discriminate there.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, pgUniquePhrase):
		return constraintName == "" || strings.Contains(msg, `"`+constraintName+`"`)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return true
	default:
		return false
	}
}
