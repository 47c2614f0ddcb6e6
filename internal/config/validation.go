package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration and returns ValidationErrors when anything is wrong.
func (c Config) Validate() error {
	var errs ValidationErrors

	validateHTTPURL(&errs, "backend.url", c.Backend.URL)
	if c.Backend.Timeout < 0 {
		errs.Add("backend.timeout", "must not be negative", c.Backend.Timeout)
	}

	validateHTTPURL(&errs, "oauth.authorizeUrl", c.OAuth.AuthorizeURL)
	if strings.TrimSpace(c.OAuth.ClientID) == "" {
		errs.Add("oauth.clientId", "is required")
	}
	if c.OAuth.CallbackPort < 0 || c.OAuth.CallbackPort > 65535 {
		errs.Add("oauth.callbackPort", "must be between 0 and 65535", c.OAuth.CallbackPort)
	}
	if !strings.HasPrefix(c.OAuth.CallbackPath, "/") {
		errs.Add("oauth.callbackPath", "must start with '/'", c.OAuth.CallbackPath)
	}
	if c.OAuth.RedirectURI != "" {
		validateHTTPURL(&errs, "oauth.redirectUri", c.OAuth.RedirectURI)
	}
	for i, origin := range c.OAuth.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
			errs.Add(fmt.Sprintf("oauth.allowedOrigins[%d]", i), "must be scheme://host[:port]", origin)
		}
	}

	if c.Popup.PollInterval <= 0 {
		errs.Add("popup.pollInterval", "must be positive", c.Popup.PollInterval)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateHTTPURL(errs *ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, "is required")
		return
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add(field, "must be an absolute http(s) URL", value)
	}
}
