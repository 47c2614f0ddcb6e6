// Package session owns the taboowiki login session: the persisted bearer
// token, the cached user snapshot, and the HTTP transport that authenticates
// backend calls.
//
// # Ownership
//
// Controller is the single owner of session state. Components that need the
// token or the current user receive the Controller (or its HTTP client)
// instead of reading storage themselves.
//
// # Storage
//
// TokenStore keeps two keys, one for the bearer token and one for the JSON
// encoded user snapshot, in a Storage backend:
//
//	~/.config/taboowiki/session/taboowiki_token
//	~/.config/taboowiki/session/taboowiki_user
//
// Files are written with 0600 permissions inside a 0700 directory. Processes
// sharing the directory are not coordinated: the last writer wins.
//
// # Refresh on 401
//
// Transport attaches the bearer token to every request. A 401 response moves
// the request through Authorized -> Refreshing -> Authorized|Unauthenticated:
// the token is refreshed once and the request retried once. A failed refresh
// clears the token and the original 401 is returned.
package session
