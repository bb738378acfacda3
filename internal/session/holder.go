// Package session holds the bearer token of the signed-in operator and
// drops it when the backend rejects it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/storage"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/validation"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/logger"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/telemetry"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmptyToken       = errors.New("login returned an empty token")
)

// Navigator moves the user between the public and the signed-in areas
type Navigator interface {
	ToLogin(ctx context.Context)
	ToLanding(ctx context.Context)
}

// Credentials are the login form fields
type Credentials struct {
	Email string `json:"email" validate:"required,email"`
	Senha string `json:"senha" validate:"required"`
}

func (c *Credentials) Normalize() {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
}

type loginResponse struct {
	Token string `json:"token"`
}

// Claims are the display fields carried in the token. They are read
// without verifying the signature and must not be used for authorization.
type Claims struct {
	Subject   string
	Email     string
	Nome      string
	Role      string
	ExpiresAt time.Time
}

// Session is the result of a successful login
type Session struct {
	Token  string
	Claims Claims
}

// Holder owns the bearer token
type Holder struct {
	api     *apiclient.Client
	store   storage.Store
	nav     Navigator
	log     *logger.Logger
	metrics *telemetry.ClientMetrics

	mu    sync.Mutex
	token string
	// redirected is set once the user has been sent to login for the
	// current signed-out period
	redirected bool
}

// Option configures a Holder
type Option func(*Holder)

func WithLogger(l *logger.Logger) Option {
	return func(h *Holder) { h.log = l.Named("session") }
}

func WithMetrics(m *telemetry.ClientMetrics) Option {
	return func(h *Holder) {
		if m != nil {
			h.metrics = m
		}
	}
}

// New creates a Holder and registers it as api's token source
func New(api *apiclient.Client, store storage.Store, nav Navigator, opts ...Option) *Holder {
	h := &Holder{
		api:     api,
		store:   store,
		nav:     nav,
		log:     logger.NewNop(),
		metrics: &telemetry.ClientMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	api.SetSession(h)
	return h
}

// Restore loads a persisted token. A stored token counts as signed in.
func (h *Holder) Restore(ctx context.Context) error {
	tok, err := h.store.Get(ctx, storage.KeyToken)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	h.mu.Lock()
	h.token = tok
	h.redirected = false
	h.mu.Unlock()
	return nil
}

// Login exchanges credentials for a token and persists it
func (h *Holder) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if err := validation.Default().Check(&creds); err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := h.api.Post(ctx, apiclient.LoginPath, creds, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrEmptyToken
	}

	if err := h.store.Set(ctx, storage.KeyToken, resp.Token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}

	h.mu.Lock()
	h.token = resp.Token
	h.redirected = false
	h.mu.Unlock()

	claims, _ := parseClaims(resp.Token)
	h.log.Info("signed in", zap.String("email", creds.Email))
	return &Session{Token: resp.Token, Claims: claims}, nil
}

// Logout forgets the token and returns to the landing page. The active
// church stays selected.
func (h *Holder) Logout(ctx context.Context) error {
	h.mu.Lock()
	h.token = ""
	h.redirected = false
	h.mu.Unlock()

	if err := h.store.Delete(ctx, storage.KeyToken); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	if h.nav != nil {
		h.nav.ToLanding(ctx)
	}
	return nil
}

// IsAuthenticated reports whether a token is held
func (h *Holder) IsAuthenticated() bool {
	return h.Token() != ""
}

// Token returns the current bearer token, empty when signed out
func (h *Holder) Token() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.token
}

// Claims decodes the display claims of the current token
func (h *Holder) Claims() (Claims, error) {
	tok := h.Token()
	if tok == "" {
		return Claims{}, ErrNotAuthenticated
	}
	return parseClaims(tok)
}

// HandleUnauthorized drops the session after a 401 or 403 and sends the user
// to login. Only the first failure carrying the current token acts; later
// failures of requests that were already in flight with the same token see
// it cleared and do nothing. A rejected request sent without a token
// redirects once per signed-out period.
func (h *Holder) HandleUnauthorized(ctx context.Context, sentToken, path string) {
	if path == apiclient.LoginPath {
		return
	}

	h.mu.Lock()
	if h.token != sentToken || (sentToken == "" && h.redirected) {
		h.mu.Unlock()
		return
	}
	h.token = ""
	h.redirected = true
	h.mu.Unlock()

	if sentToken != "" {
		if err := h.store.Delete(ctx, storage.KeyToken); err != nil {
			h.log.WarnContext(ctx, "failed to clear rejected token", zap.Error(err))
		}
		h.metrics.SessionInvalidations.Inc(ctx, telemetry.RouteAttr(path))
		h.log.InfoContext(ctx, "session rejected by backend", zap.String("path", path))
	}

	if h.nav != nil {
		h.nav.ToLogin(ctx)
	}
}

func parseClaims(tok string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, mc); err != nil {
		return Claims{}, fmt.Errorf("failed to read token claims: %w", err)
	}

	var c Claims
	c.Subject, _ = mc.GetSubject()
	c.Email, _ = mc["email"].(string)
	c.Nome, _ = mc["nome"].(string)
	c.Role, _ = mc["role"].(string)
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
