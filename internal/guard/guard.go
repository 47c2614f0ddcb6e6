package guard

import (
	"context"
	"errors"

	"taboowiki/internal/cli"
	"taboowiki/internal/session"
	"taboowiki/pkg/logging"
)

// Policy selects what a guard requires.
type Policy int

const (
	// PolicyAuthenticated requires a valid session.
	PolicyAuthenticated Policy = iota
	// PolicyAdmin requires a valid session of an admin user.
	PolicyAdmin
)

// String returns the string representation of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyAuthenticated:
		return "authenticated"
	case PolicyAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Reason explains a Decision.
type Reason int

const (
	ReasonOK Reason = iota
	ReasonNoToken
	ReasonInvalid
	ReasonForbidden
	ReasonUnreachable
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonOK:
		return "ok"
	case ReasonNoToken:
		return "no-token"
	case ReasonInvalid:
		return "invalid"
	case ReasonForbidden:
		return "forbidden"
	case ReasonUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Decision is the result of a guard check.
type Decision struct {
	Allowed bool
	Reason  Reason
	// User is set whenever the backend confirmed the session.
	User *session.User
	// Err is the backend error behind Invalid and Unreachable.
	Err error
}

// Authenticator is the part of the session controller a guard needs.
type Authenticator interface {
	HasToken() bool
	Me(ctx context.Context) (*session.MeResponse, error)
	Invalidate() error
}

// Guard checks a session against a policy.
type Guard struct {
	session Authenticator
	policy  Policy

	// Endpoint names the backend in errors returned by Require.
	Endpoint string
}

// New creates a guard for policy.
func New(s Authenticator, policy Policy) *Guard {
	return &Guard{session: s, policy: policy}
}

// Policy returns the guard's policy.
func (g *Guard) Policy() Policy {
	return g.policy
}

// Check evaluates the session. It makes no network call when no token is
// stored.
func (g *Guard) Check(ctx context.Context) Decision {
	if !g.session.HasToken() {
		return Decision{Reason: ReasonNoToken}
	}

	me, err := g.session.Me(ctx)
	if err != nil {
		var se *session.StatusError
		if errors.As(err, &se) {
			g.invalidate()
			return Decision{Reason: ReasonInvalid, Err: err}
		}
		logging.Warn("Guard", "Session check failed: %v", err)
		return Decision{Reason: ReasonUnreachable, Err: err}
	}
	if !me.Success || me.User == nil {
		g.invalidate()
		return Decision{Reason: ReasonInvalid}
	}

	if g.policy == PolicyAdmin && !me.User.IsAdmin {
		logging.AuditLevel(logging.LevelWarn, "admin_access_denied", "Admin access denied",
			"user", me.User.Username)
		return Decision{Reason: ReasonForbidden, User: me.User}
	}
	return Decision{Allowed: true, Reason: ReasonOK, User: me.User}
}

func (g *Guard) invalidate() {
	if err := g.session.Invalidate(); err != nil {
		logging.Warn("Guard", "Failed to clear rejected session: %v", err)
	}
}

// Require returns the confirmed user, or an error from the cli package
// describing why access was denied.
func (g *Guard) Require(ctx context.Context) (*session.User, error) {
	d := g.Check(ctx)
	return d.User, g.errorFor(d)
}

func (g *Guard) errorFor(d Decision) error {
	switch d.Reason {
	case ReasonOK:
		return nil
	case ReasonNoToken:
		return &cli.AuthRequiredError{Endpoint: g.Endpoint}
	case ReasonInvalid:
		return &cli.AuthExpiredError{Endpoint: g.Endpoint}
	case ReasonForbidden:
		username := ""
		if d.User != nil {
			username = d.User.Username
		}
		return &cli.ForbiddenError{Endpoint: g.Endpoint, Username: username}
	default:
		return cli.ClassifyConnectionError(d.Err, g.Endpoint)
	}
}
