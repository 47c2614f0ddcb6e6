package oauth

import (
	_ "embed"
	"html/template"
	"net/http"
	"sync"

	"github.com/Masterminds/sprig/v3"

	"taboowiki/internal/session"
	"taboowiki/pkg/logging"
)

// ErrorPageCloseSeconds is how long an error page stays open.
const ErrorPageCloseSeconds = 3

//go:embed templates/callback.html
var callbackHTML string

var callbackTemplate = template.Must(template.New("callback").Funcs(sprig.FuncMap()).Parse(callbackHTML))

type callbackPage struct {
	Title            string
	Heading          string
	Message          string
	IsError          bool
	AutoCloseSeconds int
}

// Adopter persists a login result.
type Adopter interface {
	Adopt(token string, user *session.User) error
}

// CallbackHandler is the route the identity provider redirects to. It
// exchanges the code with the backend and reports the result.
//
// When a listener is registered on Bus (an opener is waiting) the result is
// posted as a message from Origin. Otherwise the token is stored directly
// through Session. A handler serves one callback; later requests get 400.
type CallbackHandler struct {
	Exchanger Exchanger
	Bus       *MessageBus
	Session   Adopter

	// Origin is stamped on posted envelopes.
	Origin string

	// State must match the state query parameter when set.
	State string

	// OnPhase observes phase changes made by the handler.
	OnPhase func(Phase)

	once sync.Once
}

// ServeHTTP implements http.Handler.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var handled bool
	h.once.Do(func() {
		handled = true
		h.process(w, r)
	})

	if !handled {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
	}
}

func (h *CallbackHandler) process(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'; script-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		msg := "GitHub authorization denied: " + providerErr
		if desc := query.Get("error_description"); desc != "" {
			msg += " (" + desc + ")"
		}
		h.fail(w, msg)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.fail(w, "No authorization code received, please try again")
		return
	}

	if h.State != "" && query.Get("state") != h.State {
		logging.AuditLevel(logging.LevelWarn, "oauth_state_mismatch", "OAuth callback state mismatch",
			"remote", r.RemoteAddr)
		h.fail(w, "Invalid login state, please start the login again")
		return
	}

	if h.OnPhase != nil {
		h.OnPhase(PhaseExchanging)
	}

	result, err := h.Exchanger.Exchange(r.Context(), code)
	if err != nil {
		logging.Warn("OAuth", "Code exchange failed: %v", err)
		h.fail(w, err.Error())
		return
	}
	if !result.Success || result.Token == "" {
		msg := result.Message
		if msg == "" {
			msg = "Login failed, please try again"
		}
		h.fail(w, msg)
		return
	}

	if h.popupMode() {
		h.post(Message{Type: TypeSuccess, Token: result.Token, User: result.User})
	} else if h.Session != nil {
		if err := h.Session.Adopt(result.Token, result.User); err != nil {
			h.fail(w, "Failed to store session: "+err.Error())
			return
		}
	}

	name := ""
	if result.User != nil {
		name = result.User.DisplayName()
	}
	message := "You are now logged in."
	if name != "" {
		message = "You are now logged in as " + name + "."
	}
	h.render(w, callbackPage{Title: "Login successful", Heading: "Login successful!", Message: message})
}

func (h *CallbackHandler) popupMode() bool {
	return h.Bus != nil && h.Bus.ListenerCount() > 0
}

func (h *CallbackHandler) fail(w http.ResponseWriter, msg string) {
	if h.popupMode() {
		h.post(Message{Type: TypeError, Message: msg})
	}
	h.render(w, callbackPage{
		Title:            "Login failed",
		Heading:          "Login failed",
		Message:          msg,
		IsError:          true,
		AutoCloseSeconds: ErrorPageCloseSeconds,
	})
}

func (h *CallbackHandler) post(msg Message) {
	env, err := NewEnvelope(h.Origin, msg)
	if err != nil {
		logging.Error("OAuth", err, "Failed to encode login message")
		return
	}
	h.Bus.Post(env)
}

func (h *CallbackHandler) render(w http.ResponseWriter, page callbackPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := callbackTemplate.Execute(w, page); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
