// Package quote implements the per-instrument state machine.
//
// A Machine holds the last two samples of one tracked instrument, computes
// derived change values on each new sample, tracks the consecutive failure
// count, and emits publish events to a Sink on every state transition and
// successful sample. Closed-market ticks re-emit the last event unchanged.
//
// A Machine is owned by exactly one scheduling lane and is not safe for
// concurrent use.
package quote
