package session

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"tour-admin-server/internal/config"
	"tour-admin-server/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"
)

const (
	KeyAuthToken    = "authToken"
	KeyPendingToken = "pendingToken"
	KeyPendingUser  = "pendingUser"
	KeyCountryID    = "selectedCountryId"
	KeyCountryCode  = "selectedCountryCode"
	KeyLanguage     = "language"
	KeySessionID    = "sid"
)

var ErrNoSession = errors.New("no session in request context")

// Manager reads and writes the signed, encrypted session cookie.
type Manager struct {
	store *sessions.CookieStore
	name  string
}

func NewManager(cfg config.SessionConfig) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, config.ErrMissingSessionSecret
	}

	hashKey, err := deriveKey(cfg.Secret, "session-hash", 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := deriveKey(cfg.Secret, "session-block", 32)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.MaxAge(int(cfg.MaxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.Secure
	store.Options.SameSite = http.SameSiteLaxMode

	name := cfg.Name
	if name == "" {
		name = "__session"
	}
	return &Manager{store: store, name: name}, nil
}

func deriveKey(secret, info string, size int) ([]byte, error) {
	h := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	key := make([]byte, size)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", info, err)
	}
	return key, nil
}

// Load returns the request's session. A cookie that fails verification is
// replaced by a fresh session and reported through the error.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	raw, err := m.store.Get(r, m.name)
	if raw == nil {
		raw = sessions.NewSession(m.store, m.name)
		opts := *m.store.Options
		raw.Options = &opts
		raw.IsNew = true
	}
	if err != nil {
		raw.Values = make(map[interface{}]interface{})
		raw.IsNew = true
	}

	s := &Session{raw: raw, manager: m}
	if s.ID() == "" {
		raw.Values[KeySessionID] = uuid.NewString()
	}
	return s, err
}

// Session is a typed view over the cookie values.
type Session struct {
	raw     *sessions.Session
	manager *Manager
	dirty   bool
}

func (s *Session) get(key string) string {
	v, _ := s.raw.Values[key].(string)
	return v
}

func (s *Session) set(key, value string) {
	if s.get(key) == value {
		return
	}
	if value == "" {
		delete(s.raw.Values, key)
	} else {
		s.raw.Values[key] = value
	}
	s.dirty = true
}

func (s *Session) ID() string           { return s.get(KeySessionID) }
func (s *Session) IsNew() bool          { return s.raw.IsNew }
func (s *Session) AuthToken() string    { return s.get(KeyAuthToken) }
func (s *Session) PendingToken() string { return s.get(KeyPendingToken) }
func (s *Session) CountryID() string    { return s.get(KeyCountryID) }
func (s *Session) CountryCode() string  { return s.get(KeyCountryCode) }
func (s *Session) Language() string     { return s.get(KeyLanguage) }

// Dirty reports whether a value changed since Load.
func (s *Session) Dirty() bool { return s.dirty || s.raw.IsNew }

func (s *Session) SetAuthToken(token string) { s.set(KeyAuthToken, token) }
func (s *Session) SetLanguage(lang string)   { s.set(KeyLanguage, lang) }

func (s *Session) SetCountry(c domain.Country) {
	s.set(KeyCountryID, c.ID)
	s.set(KeyCountryCode, c.Code)
}

// SetPending stores the password step's credentials. The user is kept as
// JSON so the cookie codec needs no type registration.
func (s *Session) SetPending(token string, user *domain.User) error {
	s.set(KeyPendingToken, token)
	if user == nil {
		s.set(KeyPendingUser, "")
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode pending user: %w", err)
	}
	s.set(KeyPendingUser, string(raw))
	return nil
}

func (s *Session) PendingUser() *domain.User {
	raw := s.get(KeyPendingUser)
	if raw == "" {
		return nil
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil
	}
	return &user
}

func (s *Session) ClearPending() {
	s.set(KeyPendingToken, "")
	s.set(KeyPendingUser, "")
}

// ClearAuth drops active and pending credentials but keeps preferences.
func (s *Session) ClearAuth() {
	s.set(KeyAuthToken, "")
	s.ClearPending()
}

func (s *Session) Save(w http.ResponseWriter, r *http.Request) error {
	if err := s.manager.store.Save(r, w, s.raw); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.dirty = false
	s.raw.IsNew = false
	return nil
}

// Destroy expires the cookie and forgets every value.
func (s *Session) Destroy(w http.ResponseWriter, r *http.Request) error {
	s.raw.Values = make(map[interface{}]interface{})
	s.raw.Options.MaxAge = -1
	if err := s.manager.store.Save(r, w, s.raw); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	s.dirty = false
	return nil
}

type contextKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}
