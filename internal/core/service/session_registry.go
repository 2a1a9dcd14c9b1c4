package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
	"github.com/ociferry/ferry-booking/internal/pkg/metrics"
)

// bootstrapTimeout bounds a slot bootstrap, which outlives the request that
// triggered it.
const bootstrapTimeout = 15 * time.Second

type registryEntry struct {
	resolver *SessionResolver
	// ready is closed once the first bootstrap finished.
	ready chan struct{}
}

// SessionRegistry keeps one SessionResolver per bearer token and routes
// identity store events to every resolver holding the session. A session
// can be held by several tokens once it has been refreshed.
type SessionRegistry struct {
	store    ports.IdentityStore
	profiles ports.ProfileRepository
	bookings LocalBookingCleaner
	opts     ResolverOptions
	log      zerolog.Logger

	mu        sync.Mutex
	byToken   map[string]*registryEntry
	bySession map[string]map[string]struct{}
}

// NewSessionRegistry creates a new SessionRegistry.
func NewSessionRegistry(
	store ports.IdentityStore,
	profiles ports.ProfileRepository,
	bookings LocalBookingCleaner,
	opts ResolverOptions,
	log zerolog.Logger,
) *SessionRegistry {
	return &SessionRegistry{
		store:     store,
		profiles:  profiles,
		bookings:  bookings,
		opts:      opts,
		log:       log,
		byToken:   make(map[string]*registryEntry),
		bySession: make(map[string]map[string]struct{}),
	}
}

// SignUp registers a new account. The profile is provisioned on first sign-in.
func (r *SessionRegistry) SignUp(ctx context.Context, email, password, name string) (*domain.Identity, error) {
	ident, err := r.store.SignUp(ctx, email, password, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	r.log.Info().Str("account_id", ident.ID).Msg("account registered")
	return ident, nil
}

// SignIn authenticates the account and resolves its session slot.
func (r *SessionRegistry) SignIn(ctx context.Context, email, password string) (*ports.SignInResult, error) {
	sess, err := r.store.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	entry, created := r.entryFor(sess.Token)
	if created {
		r.bootstrap(ctx, sess.Token, entry)
	} else if err := r.wait(ctx, entry); err != nil {
		return nil, err
	}

	return &ports.SignInResult{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Session:   entry.resolver.Snapshot(),
	}, nil
}

// Refresh extends the session behind token and attaches the reissued token.
func (r *SessionRegistry) Refresh(ctx context.Context, token string) (*ports.SignInResult, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	sess, err := r.store.Refresh(ctx, token)
	if err != nil {
		return nil, err
	}

	snap, err := r.Attach(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	return &ports.SignInResult{Token: sess.Token, ExpiresAt: sess.ExpiresAt, Session: snap}, nil
}

// SignOut ends the session behind token. Unknown tokens are bootstrapped first
// so the account's local bookings can still be cleared.
func (r *SessionRegistry) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrUnauthenticated
	}

	entry, created := r.entryFor(token)
	if created {
		r.bootstrap(ctx, token, entry)
	} else if err := r.wait(ctx, entry); err != nil {
		return err
	}

	sessionID := entry.resolver.Snapshot().SessionID
	err := entry.resolver.SignOut(ctx)
	r.drop(token)
	if sessionID != "" {
		r.dropSession(sessionID)
	}
	return err
}

// ConfirmEmail confirms the account holding the confirmation token.
func (r *SessionRegistry) ConfirmEmail(ctx context.Context, token string) (*domain.Identity, error) {
	return r.store.ConfirmEmail(ctx, token)
}

// Attach returns the resolved session for token. A token without a live
// identity store session yields an AuthInvalidToken error.
func (r *SessionRegistry) Attach(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{State: domain.StateAnonymous}, domain.ErrUnauthenticated
	}

	entry, created := r.entryFor(token)
	if created {
		r.bootstrap(ctx, token, entry)
	} else if err := r.wait(ctx, entry); err != nil {
		return domain.Session{}, err
	}

	snap := entry.resolver.Snapshot()
	if snap.Authenticated() && !created {
		live, err := r.live(ctx, token)
		if err != nil {
			return domain.Session{}, err
		}
		if !live {
			entry.resolver.OnSessionChanged(ctx, domain.SessionEvent{Kind: domain.SessionExpired, SessionID: snap.SessionID, At: time.Now()})
			snap = entry.resolver.Snapshot()
		}
	}
	if !snap.Authenticated() {
		r.drop(token)
		return snap, domain.NewAuthError(domain.AuthInvalidToken, nil)
	}
	if snap.Profile == nil {
		snap = entry.resolver.ResolvePending(ctx)
	}
	return snap, nil
}

// Rename changes the display name on the profile of the session behind token.
func (r *SessionRegistry) Rename(ctx context.Context, token, name string) (domain.Session, error) {
	if _, err := r.Attach(ctx, token); err != nil {
		return domain.Session{}, err
	}
	entry := r.lookup(token)
	if entry == nil {
		return domain.Session{State: domain.StateAnonymous}, domain.ErrUnauthenticated
	}
	return entry.resolver.Rename(ctx, name)
}

// HandleEvent routes an identity store event to every slot holding its
// session. Events for sessions this instance never attached are ignored; those
// slots bootstrap from the identity store on first use.
func (r *SessionRegistry) HandleEvent(ctx context.Context, ev domain.SessionEvent) error {
	r.mu.Lock()
	entries := make(map[string]*registryEntry, len(r.bySession[ev.SessionID]))
	for token := range r.bySession[ev.SessionID] {
		if e, ok := r.byToken[token]; ok {
			entries[token] = e
		}
	}
	r.mu.Unlock()

	if len(entries) == 0 {
		metrics.SessionEventsTotal.WithLabelValues(string(ev.Kind), "ignored").Inc()
		return nil
	}
	for token, entry := range entries {
		if err := r.wait(ctx, entry); err != nil {
			return err
		}
		snap := entry.resolver.OnSessionChanged(ctx, ev)
		if !snap.Authenticated() {
			r.drop(token)
		}
	}
	metrics.SessionEventsTotal.WithLabelValues(string(ev.Kind), "applied").Inc()
	return nil
}

// Len returns the number of live session slots.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byToken)
}

// entryFor returns the entry of token, creating it when absent. created is
// true when the caller must bootstrap the new entry.
func (r *SessionRegistry) entryFor(token string) (*registryEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byToken[token]; ok {
		return e, false
	}
	e := &registryEntry{
		resolver: NewSessionResolver(token, r.store, r.profiles, r.bookings, r.opts, r.log.With().Str("component", "session").Logger()),
		ready:    make(chan struct{}),
	}
	r.byToken[token] = e
	metrics.ActiveSessions.Set(float64(len(r.byToken)))
	return e, true
}

// bootstrap resolves a new entry. Waiters on other requests share the result,
// so it runs detached from the cancellation of ctx.
func (r *SessionRegistry) bootstrap(ctx context.Context, token string, e *registryEntry) {
	defer close(e.ready)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bootstrapTimeout)
	defer cancel()

	snap := e.resolver.Bootstrap(ctx)
	if snap.SessionID == "" {
		return
	}
	r.mu.Lock()
	if r.byToken[token] == e {
		tokens, ok := r.bySession[snap.SessionID]
		if !ok {
			tokens = make(map[string]struct{})
			r.bySession[snap.SessionID] = tokens
		}
		tokens[token] = struct{}{}
	}
	r.mu.Unlock()
}

// live reports whether token is still backed by an identity store session.
// It reports false once the token expired or its session ended.
func (r *SessionRegistry) live(ctx context.Context, token string) (bool, error) {
	sess, err := r.store.CurrentSession(ctx, token)
	if err != nil {
		return false, err
	}
	return sess != nil, nil
}

func (r *SessionRegistry) wait(ctx context.Context, e *registryEntry) error {
	select {
	case <-e.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *SessionRegistry) lookup(token string) *registryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byToken[token]
}

func (r *SessionRegistry) drop(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byToken, token)
	for sid, tokens := range r.bySession {
		delete(tokens, token)
		if len(tokens) == 0 {
			delete(r.bySession, sid)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.byToken)))
}

// dropSession clears and drops every slot holding sessionID.
func (r *SessionRegistry) dropSession(sessionID string) {
	r.mu.Lock()
	entries := make([]*registryEntry, 0, len(r.bySession[sessionID]))
	for token := range r.bySession[sessionID] {
		if e, ok := r.byToken[token]; ok {
			entries = append(entries, e)
		}
		delete(r.byToken, token)
	}
	delete(r.bySession, sessionID)
	metrics.ActiveSessions.Set(float64(len(r.byToken)))
	r.mu.Unlock()

	ended := domain.SessionEvent{Kind: domain.SessionSignedOut, SessionID: sessionID, At: time.Now()}
	for _, e := range entries {
		e.resolver.OnSessionChanged(context.Background(), ended)
	}
}
