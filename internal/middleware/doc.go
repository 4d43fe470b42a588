// Package middleware provides HTTP middleware for the LFG board.
//
// # Authentication
//
// Auth and OptionalAuth read a bearer token from the Authorization header,
// falling back to the lfg_token cookie for browser sessions. A valid token
// provisions its user in the directory and places a model.Actor in the
// request context:
//
//	actor := middleware.GetActor(r.Context())
//
// Requests without a valid token get the anonymous actor under OptionalAuth
// and a 401 problem response under Auth.
//
// # Request plumbing
//
// RequestID, Logger, Trace, Recovery, CORS and Compress are composed with
// Chain. Compress leaves event streams alone so SSE frames flush immediately.
package middleware
