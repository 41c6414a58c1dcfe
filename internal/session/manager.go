package session

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/networkrad/internal/domain"
)

const userKey = "user"

// CookieOptions configures the session cookie
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Manager reads and writes the logged-in user on the session
type Manager struct {
	store *ServerStore
	name  string
}

// NewManager builds the session store for backend. Cookies are HttpOnly,
// SameSite=Lax and scoped to "/".
func NewManager(backend Backend, secret string, opts CookieOptions) *Manager {
	store := NewServerStore(backend, sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, []byte(secret))

	return &Manager{store: store, name: opts.Name}
}

// CookieName returns the session cookie name
func (m *Manager) CookieName() string {
	return m.name
}

func (m *Manager) session(r *http.Request) *sessions.Session {
	s, err := m.store.Get(r, m.name)
	if err != nil {
		// Tampered cookies, rotated secrets and backend hiccups all read as anonymous
		slog.Debug("ignoring unreadable session", "error", err)
	}
	return s
}

// User returns the logged-in user, if any
func (m *Manager) User(r *http.Request) (*domain.SessionUser, bool) {
	s := m.session(r)
	if s == nil || s.IsNew {
		return nil, false
	}

	raw, ok := s.Values[userKey].(string)
	if !ok {
		return nil, false
	}
	var user domain.SessionUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		slog.Warn("discarding malformed session user", "error", err)
		return nil, false
	}
	if user.ID == "" {
		return nil, false
	}
	return &user, true
}

// SetUser logs a user in. The session ID is always regenerated so an ID
// issued before login is never reused after it.
func (m *Manager) SetUser(w http.ResponseWriter, r *http.Request, user domain.SessionUser) error {
	s := m.session(r)
	if err := m.store.Discard(r, s); err != nil {
		return domain.WrapSession("discard previous session", err)
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return domain.WrapSession("encode user", err)
	}

	s.ID = ""
	s.IsNew = false
	s.Values = map[interface{}]interface{}{userKey: string(raw)}
	if err := m.store.Save(r, w, s); err != nil {
		return domain.WrapSession("save session", err)
	}
	return nil
}

// Destroy removes the session from the backend and expires the cookie
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	s := m.session(r)
	s.Options.MaxAge = -1
	s.Values = map[interface{}]interface{}{}
	if err := m.store.Save(r, w, s); err != nil {
		return domain.WrapSession("destroy session", err)
	}
	return nil
}
