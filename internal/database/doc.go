// Package database builds the PostgreSQL connection pool used by the
// optional publish-event recorder. The daemon runs without it when no
// database block is configured.
package database
