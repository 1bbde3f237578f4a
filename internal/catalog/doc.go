// Package catalog orders the exchange and currency listings available for
// an ISIN. Operators use it to pick the exchange/currency pair an
// instrument entry should track.
package catalog
