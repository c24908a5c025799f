// Package postgres provides PostgreSQL implementations of the interfaces in
// internal/store. Queries go through database/sql with the pgx driver, and
// every store accepts a store.DBTX so it can run inside a caller's
// transaction.
package postgres
