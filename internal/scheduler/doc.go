// Package scheduler decides, per tracked instrument, when to poll next and
// executes the poll.
//
// Every instrument runs on its own lane: one goroutine owning one timer and
// one quote state machine, so at most one fetch per key is ever in flight
// and lanes never synchronize with each other. Each wake consults the market
// calendar; closed markets re-publish the last values without a network call
// and sleep until the next session boundary, capped by a safety ceiling.
// Open markets fetch, feed the state machine, and pick the next wake from
// the effective interval, an exponential backoff, or the rate-limit
// cool-down, depending on the outcome.
package scheduler
