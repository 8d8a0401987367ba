// Package session implements the login stub: identities derived from an
// email, persisted in a key-value store, and carried between requests by a
// signed token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/observability"
	"github.com/couchcryptid/shore-hazard-service/internal/store"
	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	identityKeyPrefix = "shore-user:"
	languageKeyPrefix = "shore-language:"
)

// Login is the result of a successful login.
type Login struct {
	Token    string          `json:"token"`
	Identity domain.Identity `json:"identity"`
}

// Manager creates, restores, and destroys sessions.
type Manager struct {
	store    store.Store
	secret   []byte
	resolver domain.RoleResolver
	clock    clockwork.Clock
	delay    time.Duration
	ttl      time.Duration
	newID    func() string
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option customizes a Manager.
type Option func(*Manager)

// WithRoleResolver replaces the email heuristic.
func WithRoleResolver(r domain.RoleResolver) Option {
	return func(m *Manager) {
		if r != nil {
			m.resolver = r
		}
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLoginDelay sets the artificial delay applied to every login.
func WithLoginDelay(d time.Duration) Option {
	return func(m *Manager) { m.delay = d }
}

func WithTokenTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithIDGenerator overrides identity ID generation.
func WithIDGenerator(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

// NewManager creates a Manager persisting identities in st and signing
// tokens with secret.
func NewManager(st store.Store, secret string, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:    st,
		secret:   []byte(secret),
		resolver: domain.EmailHeuristicResolver,
		clock:    domain.Clock(),
		delay:    time.Second,
		ttl:      72 * time.Hour,
		newID:    uuid.NewString,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login creates a session for email. The password is accepted as-is; both
// fields only need to be non-empty.
func (m *Manager) Login(ctx context.Context, email, password string) (Login, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Login{}, fmt.Errorf("%w: email and password are required", domain.ErrValidationFailed)
	}

	if err := m.wait(ctx); err != nil {
		return Login{}, err
	}

	identity := domain.NewIdentity(m.newID(), email, m.resolver)
	data, err := json.Marshal(identity)
	if err != nil {
		return Login{}, fmt.Errorf("encode identity: %w", err)
	}
	if err := m.store.Set(ctx, identityKeyPrefix+identity.ID, data); err != nil {
		return Login{}, fmt.Errorf("persist identity: %w", err)
	}

	token, err := m.sign(identity.ID)
	if err != nil {
		return Login{}, err
	}

	if m.metrics != nil {
		m.metrics.Logins.Inc()
	}
	m.logger.Info("login", "identity_id", identity.ID, "role", identity.Role)
	return Login{Token: token, Identity: identity}, nil
}

// Logout destroys the persisted identity and its preferences.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, identityKeyPrefix+id); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if err := m.store.Delete(ctx, languageKeyPrefix+id); err != nil {
		return fmt.Errorf("delete language preference: %w", err)
	}
	m.logger.Info("logout", "identity_id", id)
	return nil
}

// Restore resolves a session token to its persisted identity. The identity
// is trusted as stored; the email is not re-validated.
func (m *Manager) Restore(ctx context.Context, token string) (domain.Identity, error) {
	id, err := m.verify(token)
	if err != nil {
		return domain.Identity{}, err
	}
	return m.Lookup(ctx, id)
}

// Lookup loads the persisted identity for id. A missing or malformed entry
// yields ErrNoSession.
func (m *Manager) Lookup(ctx context.Context, id string) (domain.Identity, error) {
	data, err := m.store.Get(ctx, identityKeyPrefix+id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Identity{}, domain.ErrNoSession
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("load identity: %w", err)
	}

	var identity domain.Identity
	if err := json.Unmarshal(data, &identity); err != nil || !identity.Valid() || identity.ID != id {
		m.logger.Warn("discarding malformed persisted identity", "identity_id", id, "error", err)
		return domain.Identity{}, fmt.Errorf("%w: persisted identity is malformed", domain.ErrNoSession)
	}
	return identity, nil
}

func (m *Manager) wait(ctx context.Context) error {
	if m.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.clock.After(m.delay):
		return nil
	}
}

func (m *Manager) sign(id string) (string, error) {
	now := m.clock.Now()
	claims := jwt.StandardClaims{
		Subject:   id,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(m.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// verify checks the signature and expiry against the manager's clock and
// returns the identity ID.
func (m *Manager) verify(token string) (string, error) {
	parser := &jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	var claims jwt.StandardClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: invalid token", domain.ErrNoSession)
	}
	if !claims.VerifyExpiresAt(m.clock.Now().Unix(), true) {
		return "", fmt.Errorf("%w: token expired", domain.ErrNoSession)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", domain.ErrNoSession)
	}
	return claims.Subject, nil
}
