// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store. Queries are built with squirrel and
// scanned with sqlx over the pgx stdlib driver; the schema is managed by
// goose migrations embedded in the binary.
package postgres
