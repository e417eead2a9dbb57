// Package appstate wires the per-process collaborators together.
package appstate

import (
	"log/slog"
	"net/http"

	"cinetix-cli/auth"
	"cinetix-cli/booking"
	"cinetix-cli/config"
	"cinetix-cli/service"
	"cinetix-cli/store"
)

// State is built once per application root and passed down explicitly.
type State struct {
	Config   config.Config
	Log      *slog.Logger
	Client   *service.Client
	Auth     *auth.Session
	Bookings *booking.Lifecycle
}

type Option func(*options)

type options struct {
	httpClient *http.Client
	tokens     auth.TokenStore
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTokenStore replaces the on-disk token file.
func WithTokenStore(s auth.TokenStore) Option {
	return func(o *options) { o.tokens = s }
}

func New(cfg config.Config, log *slog.Logger, opts ...Option) *State {
	o := options{tokens: store.TokenFile{}}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	client := service.NewClient(cfg.APIURL, o.httpClient,
		service.WithLogger(log.With(slog.String("component", "api"))),
		service.WithMaxAttempts(cfg.MaxAttempts),
	)
	session := auth.NewSession(client, o.tokens, log.With(slog.String("component", "auth")))
	client.SetTokenSource(session.Token)
	client.OnUnauthorized(session.Invalidate)

	lifecycle := booking.NewLifecycle(client, booking.WithLogger(log.With(slog.String("component", "booking"))))

	return &State{
		Config:   cfg,
		Log:      log,
		Client:   client,
		Auth:     session,
		Bookings: lifecycle,
	}
}
