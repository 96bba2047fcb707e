// Package postgres implements the store interfaces on PostgreSQL,
// accessed through database/sql with the pgx stdlib driver. Dynamic
// predicate queries (due/overdue sets) are built with squirrel; fixed
// statements use plain SQL.
package postgres
