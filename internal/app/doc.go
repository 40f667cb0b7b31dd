// Package app assembles the HTTP server: redis, the engine, the gin router
// with its session and guard middleware, and the metric exporters.
package app
