// Package pg provides PostgreSQL connection management built on pgx:
// pooled connections with startup retry, goose schema migrations and a
// readiness healthcheck.
package pg
