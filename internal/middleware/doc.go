// Package middleware provides gin middleware shared by every route.
//
// It covers request logging through zerolog and the CORS policy that lets the
// browser client open the websocket from another origin.
package middleware
