// Package guard decides whether the current session may see protected
// content.
//
// A Guard checks the stored token locally first and only then asks the
// backend who the token belongs to. Without a token no request is made.
// A token the backend rejects is cleared; a token that is merely not an
// admin, or a backend that cannot be reached, leaves the session alone.
package guard
