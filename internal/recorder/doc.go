// Package recorder archives publish events into PostgreSQL.
//
// The recorder is an optional publication sink: it buffers incoming events,
// accumulates batches, and writes them with ON CONFLICT DO NOTHING so that
// closed-market re-publishes never duplicate rows. Inserts are append-only.
package recorder
