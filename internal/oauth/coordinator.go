package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"taboowiki/internal/session"
	"taboowiki/pkg/logging"
)

// DefaultPollInterval is how often the coordinator checks whether the login
// window was closed.
const DefaultPollInterval = time.Second

// ErrLoginInProgress is returned when Login is called while an attempt is
// still running.
var ErrLoginInProgress = errors.New("login already in progress")

// Phase is the state of a login attempt.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingCode
	PhaseExchanging
	PhaseResolved
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingCode:
		return "awaiting-code"
	case PhaseExchanging:
		return "exchanging"
	case PhaseResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// OutcomeKind is how a login attempt ended.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeError
	OutcomeCancelled
)

// String returns the string representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeError:
		return "error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the result of a login attempt.
type Outcome struct {
	Kind    OutcomeKind
	User    *session.User
	Message string
}

// Success reports whether the login succeeded.
func (o Outcome) Success() bool {
	return o.Kind == OutcomeSuccess
}

const (
	defaultErrorMessage = "OAuth2 login failed"
	cancelledMessage    = "login cancelled"
)

// Coordinator drives one login window at a time and waits for its result.
type Coordinator struct {
	Opener  Opener
	Bus     *MessageBus
	Session Adopter

	// AuthURL builds the authorize URL for a state value.
	AuthURL func(state string) string

	// State is used for the next attempt. A fresh one is generated when empty.
	State string

	// AllowedOrigins lists the origins whose messages are accepted.
	AllowedOrigins []string

	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration

	// Screen positions the login window.
	Screen Screen

	// OnPhase observes every phase change.
	OnPhase func(Phase)

	mu    sync.Mutex
	phase Phase
}

// Phase returns the current phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Coordinator) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	if c.OnPhase != nil {
		c.OnPhase(p)
	}
}

// ObservePhase accepts phase reports from the callback route. Only the move
// from AwaitingCode to Exchanging is taken over.
func (c *Coordinator) ObservePhase(p Phase) {
	c.mu.Lock()
	ok := p == PhaseExchanging && c.phase == PhaseAwaitingCode
	if ok {
		c.phase = p
	}
	c.mu.Unlock()
	if ok && c.OnPhase != nil {
		c.OnPhase(p)
	}
}

// Login opens the login window and blocks until the attempt resolves or ctx
// is done. A cancelled ctx resolves the attempt as Cancelled. The returned
// error is only set when the attempt could not start.
func (c *Coordinator) Login(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.phase == PhaseAwaitingCode || c.phase == PhaseExchanging {
		c.mu.Unlock()
		return Outcome{}, ErrLoginInProgress
	}
	c.phase = PhaseAwaitingCode
	c.mu.Unlock()
	if c.OnPhase != nil {
		c.OnPhase(PhaseAwaitingCode)
	}

	state := c.State
	if state == "" {
		state = NewState()
	}
	interval := c.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	var (
		once     sync.Once
		mu       sync.Mutex // guards id, popup and closeEarly
		id       ListenerID
		popup    Popup
		ticker   = time.NewTicker(interval)
		done     = make(chan struct{})
		outcomes = make(chan Outcome, 1)
	)
	// closeEarly records a close requested while Open was still running.
	var closeEarly bool

	closePopup := func() {
		mu.Lock()
		p := popup
		if p == nil {
			closeEarly = true
		}
		mu.Unlock()
		if p != nil {
			p.Close()
		}
	}

	// resolve tears down the listener and the poll before finish runs, and
	// runs at most once per attempt.
	resolve := func(finish func() Outcome) {
		once.Do(func() {
			mu.Lock()
			c.Bus.RemoveListener(id)
			mu.Unlock()
			ticker.Stop()
			close(done)

			outcome := finish()
			c.setPhase(PhaseResolved)
			outcomes <- outcome
		})
	}

	listener := func(env Envelope) {
		if !c.originAllowed(env.Origin) {
			logging.AuditLevel(logging.LevelWarn, "oauth_message_rejected", "Login message from unexpected origin dropped",
				"origin", env.Origin)
			return
		}
		msg, ok := DecodeMessage(env.Data)
		if !ok {
			logging.Debug("OAuth", "Ignoring message without a known type from %s", env.Origin)
			return
		}

		switch msg.Type {
		case TypeSuccess:
			resolve(func() Outcome {
				defer closePopup()
				if msg.Token != "" {
					if err := c.Session.Adopt(msg.Token, msg.User); err != nil {
						return Outcome{Kind: OutcomeError, Message: "failed to store session: " + err.Error()}
					}
				}
				username := ""
				if msg.User != nil {
					username = msg.User.Username
				}
				logging.Audit("login_succeeded", "OAuth login succeeded", "user", username)
				return Outcome{Kind: OutcomeSuccess, User: msg.User}
			})
		case TypeError:
			resolve(func() Outcome {
				defer closePopup()
				text := msg.Message
				if text == "" {
					text = defaultErrorMessage
				}
				logging.AuditLevel(logging.LevelWarn, "login_failed", "OAuth login failed", "reason", text)
				return Outcome{Kind: OutcomeError, Message: text}
			})
		}
	}

	// The listener is in place before the window opens so an immediate
	// callback cannot be missed.
	mu.Lock()
	id = c.Bus.AddListener(listener)
	mu.Unlock()

	p, err := c.Opener.Open(ctx, c.AuthURL(state), CenterPopup(c.Screen))
	if err != nil {
		aborted := false
		once.Do(func() {
			aborted = true
			mu.Lock()
			c.Bus.RemoveListener(id)
			mu.Unlock()
			ticker.Stop()
			close(done)
		})
		if !aborted {
			// A result arrived while the window was opening.
			return <-outcomes, nil
		}
		c.setPhase(PhaseIdle)
		return Outcome{}, fmt.Errorf("failed to open login window: %w", err)
	}
	mu.Lock()
	popup = p
	pendingClose := closeEarly
	mu.Unlock()
	if pendingClose {
		p.Close()
	}

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p.Closed() {
					resolve(func() Outcome {
						logging.Info("OAuth", "Login window closed before completion")
						return Outcome{Kind: OutcomeCancelled, Message: cancelledMessage}
					})
					return
				}
			case <-ctx.Done():
				resolve(func() Outcome {
					closePopup()
					return Outcome{Kind: OutcomeCancelled, Message: cancelledMessage + ": " + ctx.Err().Error()}
				})
				return
			}
		}
	}()

	return <-outcomes, nil
}

func (c *Coordinator) originAllowed(origin string) bool {
	origin = normalizeOrigin(origin)
	if origin == "" {
		return false
	}
	for _, allowed := range c.AllowedOrigins {
		if normalizeOrigin(allowed) == origin {
			return true
		}
	}
	return false
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
