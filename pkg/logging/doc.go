// Package logging provides the subsystem logger used across taboowiki.
//
// It is a thin layer over Go's slog package: every entry carries a subsystem
// attribute, messages use printf-style formatting, and the level filter is
// applied by the slog handler.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Session", "Loaded session from %s", dir)
//	logging.Debug("OAuth", "Popup opened at %s", authURL)
//	logging.Error("API", err, "Failed to list donations")
//
// # Subsystems
//
//   - **Config**: configuration loading and validation
//   - **Session**: token store and refresh-on-401 transport
//   - **OAuth**: popup coordinator and callback route
//   - **Guard**: access decisions for protected commands and handlers
//   - **API**: sponsor and reward endpoints
//
// # Audit Logging
//
// Security relevant events (token stored, token cleared, forged callback
// message dropped) are written with Audit:
//
//	logging.Audit("token_stored", "Session token stored", "storage", dir)
//
// Audit entries are prefixed with "SECURITY_AUDIT:" and carry an "event"
// attribute. Token values are never logged.
package logging
