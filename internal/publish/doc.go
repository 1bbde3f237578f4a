// Package publish delivers publish events to the host platform.
//
// The Dispatcher decouples the scheduler's lanes from slow consumers through
// a growable FIFO queue and fans events out to the registered sinks on a
// single goroutine, preserving the per-instrument event order end to end.
// Shipped sinks: a slog sink for diagnostics and a WebSocket hub that streams
// events to host-platform subscribers.
package publish
