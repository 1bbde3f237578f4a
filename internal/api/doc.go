// Package api provides the stateless client for the upstream quote API.
//
// The client normalizes transport and payload failures into a small error
// taxonomy (*Error with a Kind) and performs no retries of its own: retry and
// backoff policy belong to the scheduler, where it can be correlated with
// per-instrument failure counts.
package api
