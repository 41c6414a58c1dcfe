package session

import (
	"encoding/base32"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

var base32RawStdEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ServerStore is a sessions.Store that keeps only a signed session ID in the
// cookie. Values live in a Backend.
type ServerStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	backend Backend
}

// NewServerStore returns a store backed by backend. keyPairs are passed to
// securecookie and sign both the cookie and the stored values.
func NewServerStore(backend Backend, opts sessions.Options, keyPairs ...[]byte) *ServerStore {
	s := &ServerStore{
		Codecs:  securecookie.CodecsFromPairs(keyPairs...),
		Options: &opts,
		backend: backend,
	}
	s.MaxAge(opts.MaxAge)
	return s
}

// Get returns a session for the given name after adding it to the registry
func (s *ServerStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns a session for the given name without adding it to the registry.
// An unknown or expired ID yields a fresh session without error.
func (s *ServerStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, errCookie := r.Cookie(name)
	if errCookie != nil {
		return session, nil
	}

	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		return session, err
	}

	data, err := s.backend.Load(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return session, nil
	}
	if err != nil {
		return session, err
	}
	if err := securecookie.DecodeMulti(name, data, &session.Values, s.Codecs...); err != nil {
		return session, err
	}

	session.ID = id
	session.IsNew = false
	return session, nil
}

// Save persists the session and writes its cookie. A MaxAge <= 0 deletes the
// stored values and expires the cookie.
func (s *ServerStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge <= 0 {
		if session.ID != "" {
			if err := s.backend.Delete(r.Context(), session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = newID()
	}

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return err
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.backend.Store(r.Context(), session.ID, data, ttl); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Discard deletes the stored values of a session without touching the cookie
func (s *ServerStore) Discard(r *http.Request, session *sessions.Session) error {
	if session.ID == "" {
		return nil
	}
	return s.backend.Delete(r.Context(), session.ID)
}

// MaxAge sets the maximum age for the store and the underlying cookie codecs
func (s *ServerStore) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, codec := range s.Codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

func newID() string {
	return base32RawStdEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
}
