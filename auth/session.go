// Package auth keeps the signed-in state of the CLI.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cinetix-cli/model"
	"cinetix-cli/store"
)

// TokenStore persists the token between runs.
type TokenStore interface {
	Load() (store.AuthToken, error)
	Save(store.AuthToken) error
	Clear() error
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials) (model.AuthResponse, error)
	Register(ctx context.Context, reg model.Registration) (model.AuthResponse, error)
}

var ErrPasswordMismatch = errors.New("passwords do not match")

// Session is the single source of the bearer token. Safe for concurrent use.
type Session struct {
	api   Authenticator
	store TokenStore
	log   *slog.Logger
	now   func() time.Time

	mu       sync.Mutex
	token    string
	username string
	user     *model.User
}

// NewSession loads any stored token. A broken token file is logged and
// treated as signed out.
func NewSession(api Authenticator, tokens TokenStore, log *slog.Logger) *Session {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Session{api: api, store: tokens, log: log, now: time.Now}
	if tokens != nil {
		stored, err := tokens.Load()
		if err != nil {
			log.Warn("load auth token", slog.String("error", err.Error()))
		} else {
			s.token = stored.Token
			s.username = stored.Username
		}
	}
	return s
}

// Token returns the bearer token, or "" when signed out or expired.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validLocked() {
		return ""
	}
	return s.token
}

// IsAuthenticated reports whether a usable token is held. JWTs are checked
// for expiry without verifying the signature; opaque tokens count as valid.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validLocked()
}

func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil && s.user.Username != "" {
		return s.user.Username
	}
	return s.username
}

// User is only known after Login or Register in this process.
func (s *Session) User() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

func (s *Session) Login(ctx context.Context, creds model.Credentials) (model.User, error) {
	res, err := s.api.Login(ctx, creds)
	if err != nil {
		return model.User{}, err
	}
	if err := s.adopt(res, creds.Username); err != nil {
		return model.User{}, err
	}
	s.log.Info("signed in", slog.String("username", res.User.Username))
	return res.User, nil
}

// Register creates an account and signs in with it. confirm must repeat
// the password.
func (s *Session) Register(ctx context.Context, reg model.Registration, confirm string) (model.User, error) {
	if reg.Password != confirm {
		return model.User{}, ErrPasswordMismatch
	}
	res, err := s.api.Register(ctx, reg)
	if err != nil {
		return model.User{}, err
	}
	if err := s.adopt(res, reg.Username); err != nil {
		return model.User{}, err
	}
	s.log.Info("registered", slog.String("username", res.User.Username))
	return res.User, nil
}

// Logout forgets the token locally and on disk.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.username = ""
	s.user = nil
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Clear()
}

// Invalidate drops a token the server rejected.
func (s *Session) Invalidate() {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	if !had {
		return
	}
	s.log.Warn("auth token rejected by server, signed out")
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			s.log.Warn("clear auth token", slog.String("error", err.Error()))
		}
	}
}

func (s *Session) adopt(res model.AuthResponse, fallbackName string) error {
	username := res.User.Username
	if username == "" {
		username = fallbackName
	}
	user := res.User
	s.mu.Lock()
	s.token = res.Token
	s.username = username
	s.user = &user
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Save(store.AuthToken{Token: res.Token, Username: username, SavedAt: s.now()})
}

func (s *Session) validLocked() bool {
	if s.token == "" {
		return false
	}
	exp, ok := expiry(s.token)
	if !ok {
		return true
	}
	return s.now().Before(exp)
}

// expiry reads the exp claim of a JWT. ok is false for opaque tokens and
// tokens without exp.
func expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
