// Package model defines the core domain types shared across the quote
// tracker: instrument keys, quote samples, derived values, publish events,
// and historical series points.
//
// Types here are plain data with no behavior beyond small derivations;
// components communicate by passing these values, never by sharing mutable
// state.
package model
