// Package api is the client for the taboowiki sponsor backend: public
// donation and reward listings, the logged-in user's own submissions, and
// the admin review endpoints.
//
// Every call goes through the session controller's HTTP client, so the
// bearer token is attached and refreshed the same way as for any other
// authenticated request.
package api
