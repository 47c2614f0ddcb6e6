// Package config provides configuration management for taboowiki.
//
// Configuration is read from a single directory containing config.yaml.
// The default directory is ~/.config/taboowiki; commands accept --config to
// point at another one. A missing file is not an error: defaults apply.
//
// # Configuration File
//
//	backend:
//	  url: https://api.taboowiki.example
//	  timeout: 30s
//	oauth:
//	  clientId: Ov23li2MIRnkuL9KBrac
//	  callbackPort: 3000
//	  allowedOrigins:
//	    - http://localhost:3000
//	session:
//	  storageDir: ~/.config/taboowiki/session
//	popup:
//	  pollInterval: 1s
//
// Values left out of the file keep their defaults (see GetDefaultConfig).
//
// # Environment
//
// TABOOWIKI_API_URL, TABOOWIKI_CLIENT_ID, TABOOWIKI_CALLBACK_PORT,
// TABOOWIKI_SESSION_DIR and TABOOWIKI_NO_BROWSER override the file.
//
// Validate reports every problem at once as ValidationErrors.
package config
