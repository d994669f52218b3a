// Package api registers the HTTP routes.
//
// The game itself is played over the websocket endpoint; the remaining routes
// are read-only views for health checks, room lookups and archived results.
package api
