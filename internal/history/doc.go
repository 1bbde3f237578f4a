// Package history fetches historical price series on demand and persists
// them as JSON artifacts. The most recent payload is retained in memory,
// last-write-wins across instruments, and cached artifacts stand in when
// the upstream is unavailable.
package history
