// Package oauth runs the browser based GitHub login for taboowiki.
//
// A login attempt opens the identity provider in a browser window (the
// "popup"), waits for the provider to redirect to a loopback callback
// route, and lets that route exchange the authorization code with the
// taboowiki backend. The callback route reports the result over a
// MessageBus; the Coordinator waiting on the other end persists the token
// through the session controller and resolves the attempt.
//
// # Lifecycle
//
//	Idle -> AwaitingCode -> Exchanging -> Resolved
//
// Every attempt resolves exactly once with Success, Error or Cancelled.
// Before the outcome is delivered the message listener is removed and the
// popup poll stops, so nothing from the attempt outlives it.
//
// # Origins
//
// Messages carry the origin of the page that posted them. The Coordinator
// only accepts origins listed in AllowedOrigins, which LoginFlow defaults to
// the callback server's own origin. Other messages are dropped and written
// to the security audit log.
//
// # Usage
//
//	flow := &oauth.LoginFlow{Config: cfg, Session: controller}
//	outcome, err := flow.Run(ctx)
package oauth
