// Package server provides the HTTP server hosting the authmaster routes,
// using Gin behind an h2c handler so HTTP/1.1 and cleartext HTTP/2 share
// one port.
//
// # Middleware
//
// Server-wide middleware (server/middleware), applied around every handler:
//
//   - Recovery: panic recovery replying with a 500 envelope
//   - RequestLogger: method, path, status and duration, never the query
//   - BodySizeLimit: request body cap
//   - RequestID: request id generation and propagation (Gin)
//
// The credential adapters (middleware.Bearer, middleware.Basic) are scoped
// per route group by the caller.
//
// # Responses
//
// Respond writes an envelope with the HTTP status equal to its code.
package server
