// Package identity is the credential and session authority of the ferry
// booking API. Accounts live in MongoDB, sessions in Redis, and every session
// change is broadcast to all API instances over Redis pub/sub.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
)

const (
	minPasswordLength    = 6
	defaultSessionTTL    = 24 * time.Hour
	defaultSweepInterval = 30 * time.Second
)

// SessionRecords stores live sessions and carries session events between instances.
type SessionRecords interface {
	Save(ctx context.Context, s *domain.AuthSession) error
	// Find returns nil when the session expired or never existed.
	Find(ctx context.Context, id string) (*domain.AuthSession, error)
	Delete(ctx context.Context, id string) (bool, error)
	ClaimExpired(ctx context.Context, now time.Time) ([]string, error)
	Publish(ctx context.Context, ev domain.SessionEvent) error
	Listen(ctx context.Context, fn func(domain.SessionEvent)) error
}

// Options configures the Store.
type Options struct {
	JWTSecret                string
	SessionTTL               time.Duration
	SignupsEnabled           bool
	RequireEmailConfirmation bool
	SweepInterval            time.Duration
}

// Store implements ports.IdentityStore.
type Store struct {
	accounts ports.AccountRepository
	sessions SessionRecords
	validate *validator.Validate
	opts     Options
	log      zerolog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	subs    map[int]func(domain.SessionEvent)
	nextSub int
}

func NewStore(accounts ports.AccountRepository, sessions SessionRecords, opts Options, log zerolog.Logger) *Store {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	return &Store{
		accounts: accounts,
		sessions: sessions,
		validate: validator.New(),
		opts:     opts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		subs:     make(map[int]func(domain.SessionEvent)),
	}
}

// SignUp registers a new account. When email confirmation is required the
// account cannot sign in until ConfirmEmail is called with its token.
func (s *Store) SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	if !s.opts.SignupsEnabled {
		return nil, domain.NewAuthError(domain.AuthServiceDisabled, nil)
	}
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, domain.NewAuthError(domain.AuthInvalidEmail, err)
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewAuthError(domain.AuthWeakPassword, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewAuthError(domain.AuthUnavailable, err)
	}

	now := s.now()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Confirmed:    !s.opts.RequireEmailConfirmation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if name := strings.TrimSpace(displayName); name != "" {
		account.Metadata = map[string]string{"name": name}
	}
	if s.opts.RequireEmailConfirmation {
		account.ConfirmationToken = uuid.NewString()
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			return nil, domain.NewAuthError(domain.AuthAlreadyRegistered, err)
		}
		return nil, domain.NewAuthError(domain.AuthUnavailable, err)
	}

	if account.ConfirmationToken != "" {
		s.log.Info().Str("account_id", account.ID).Msg("account awaiting email confirmation")
		s.log.Debug().
			Str("account_id", account.ID).
			Str("confirmation_token", account.ConfirmationToken).
			Msg("confirmation token issued")
	}
	ident := account.Identity()
	return &ident, nil
}

// SignIn verifies the credentials and opens a new session.
func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.NewAuthError(domain.AuthInvalidCredentials, nil)
		}
		return nil, domain.NewAuthError(domain.AuthUnavailable, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials, nil)
	}
	if !account.Confirmed {
		return nil, domain.NewAuthError(domain.AuthEmailUnconfirmed, nil)
	}

	sess := &domain.AuthSession{
		ID:        uuid.NewString(),
		Identity:  account.Identity(),
		ExpiresAt: s.now().Add(s.opts.SessionTTL),
	}
	if err := s.issue(ctx, sess); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.SessionEvent{Kind: domain.SessionSignedIn, SessionID: sess.ID, Session: sess, At: s.now()})
	return sess, nil
}

// SignOut ends the session behind token. Signing out an already ended
// session succeeds.
func (s *Store) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return domain.NewAuthError(domain.AuthInvalidToken, err)
	}
	live, err := s.sessions.Delete(ctx, claims.SessionID)
	if err != nil {
		return domain.NewAuthError(domain.AuthUnavailable, err)
	}
	if live {
		s.publish(ctx, domain.SessionEvent{Kind: domain.SessionSignedOut, SessionID: claims.SessionID, At: s.now()})
	}
	return nil
}

// CurrentSession returns the live session behind token. Malformed, expired
// or revoked tokens yield nil.
func (s *Store) CurrentSession(ctx context.Context, token string) (*domain.AuthSession, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, nil
	}
	sess, err := s.sessions.Find(ctx, claims.SessionID)
	if err != nil {
		return nil, domain.NewAuthError(domain.AuthUnavailable, err)
	}
	if sess == nil || sess.Identity.ID != claims.Subject {
		return nil, nil
	}
	sess.Token = token
	return sess, nil
}

// Refresh extends the session behind token by the session TTL and issues a
// new token for it. The previous token stays valid until it expires.
func (s *Store) Refresh(ctx context.Context, token string) (*domain.AuthSession, error) {
	sess, err := s.CurrentSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.NewAuthError(domain.AuthInvalidToken, nil)
	}

	sess.ExpiresAt = s.now().Add(s.opts.SessionTTL)
	if err := s.issue(ctx, sess); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.SessionEvent{Kind: domain.SessionTokenRefreshed, SessionID: sess.ID, Session: sess, At: s.now()})
	return sess, nil
}

// ConfirmEmail confirms the account holding token.
func (s *Store) ConfirmEmail(ctx context.Context, token string) (*domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.NewAuthError(domain.AuthInvalidToken, nil)
	}
	account, err := s.accounts.Confirm(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.NewAuthError(domain.AuthInvalidToken, err)
		}
		return nil, domain.NewAuthError(domain.AuthUnavailable, err)
	}
	ident := account.Identity()
	return &ident, nil
}

// Subscribe registers fn for session events from every instance.
func (s *Store) Subscribe(fn func(domain.SessionEvent)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Run starts the event listener and the session expiry sweeper. It returns
// once the listener is subscribed; both stop when ctx is cancelled.
func (s *Store) Run(ctx context.Context) error {
	if err := s.sessions.Listen(ctx, s.dispatch); err != nil {
		return err
	}
	go s.sweep(ctx)
	return nil
}

// SweepExpired publishes an Expired event for every session that ran out.
func (s *Store) SweepExpired(ctx context.Context) (int, error) {
	ids, err := s.sessions.ClaimExpired(ctx, s.now())
	for _, id := range ids {
		s.publish(ctx, domain.SessionEvent{Kind: domain.SessionExpired, SessionID: id, At: s.now()})
	}
	return len(ids), err
}

func (s *Store) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				s.log.Warn().Err(err).Msg("session expiry sweep failed")
			}
			if n > 0 {
				s.log.Debug().Int("sessions", n).Msg("expired sessions swept")
			}
		}
	}
}

func (s *Store) dispatch(ev domain.SessionEvent) {
	s.mu.RLock()
	subs := make([]func(domain.SessionEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (s *Store) publish(ctx context.Context, ev domain.SessionEvent) {
	if err := s.sessions.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("kind", string(ev.Kind)).Str("session_id", ev.SessionID).Msg("failed to publish session event")
	}
}

// issue signs a token for sess and stores the session record.
func (s *Store) issue(ctx context.Context, sess *domain.AuthSession) error {
	token, err := s.sign(sess)
	if err != nil {
		return domain.NewAuthError(domain.AuthUnavailable, err)
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return domain.NewAuthError(domain.AuthUnavailable, err)
	}
	sess.Token = token
	return nil
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

func (s *Store) sign(sess *domain.AuthSession) (string, error) {
	claims := sessionClaims{
		SessionID: sess.ID,
		Email:     sess.Identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.Identity.ID,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.JWTSecret))
}

func (s *Store) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.opts.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid || claims.SessionID == "" || claims.Subject == "" {
		return nil, fmt.Errorf("token missing session claims")
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
