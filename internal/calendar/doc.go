// Package calendar answers whether an exchange is open at a given instant
// and when its session status next changes.
//
// The session table is static: per exchange an IANA timezone, per-weekday
// open/close times, and exception dates that shorten or cancel a session.
// Exchanges without defined hours are always treated as open. The table is
// read-only after construction and safe for concurrent use without locking.
package calendar
