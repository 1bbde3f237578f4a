// Package logo fetches instrument logos once and caches them on disk.
//
// The upstream serves two payload forms and both end up as an SVG artifact:
// a static SVG document (raw or embedded in JSON) is stored as-is, and a
// Lottie animation has frame 0 exported. Cached files short-circuit the
// fetch on later calls.
package logo
