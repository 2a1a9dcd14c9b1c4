package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
	"github.com/ociferry/ferry-booking/internal/pkg/metrics"
)

const (
	defaultProfileRetries = 3
	defaultProfileBackoff = time.Second
)

type resolutionOutcome string

const (
	outcomeLoaded    resolutionOutcome = "loaded"
	outcomeCreated   resolutionOutcome = "created"
	outcomeEphemeral resolutionOutcome = "ephemeral"
	outcomeStale     resolutionOutcome = "stale"
	outcomeAborted   resolutionOutcome = "aborted"
)

// LocalBookingCleaner drops the locally cached bookings of an account.
type LocalBookingCleaner interface {
	ClearLocal(ctx context.Context, accountID string) error
}

// ResolverOptions tunes profile resolution.
type ResolverOptions struct {
	// AdminEmail is the account provisioned with the admin role. Defaults to domain.AdminEmail.
	AdminEmail string
	// Retries is the number of extra profile reads before provisioning.
	Retries uint64
	// RetryBackoff is the fixed wait between profile reads.
	RetryBackoff time.Duration
	Now          func() time.Time
}

func (o ResolverOptions) withDefaults() ResolverOptions {
	if o.AdminEmail == "" {
		o.AdminEmail = domain.AdminEmail
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = defaultProfileBackoff
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// DefaultResolverOptions returns the production retry policy.
func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{Retries: defaultProfileRetries}.withDefaults()
}

// SessionResolver owns a single client session slot: it maps the identity
// store session behind one token to an identity plus a provisioned profile.
//
// Every state change happens under mu. Profile I/O runs outside the lock and
// its result is applied only if the slot still belongs to the same resolution
// (generation) and account; anything else is discarded as stale.
type SessionResolver struct {
	token    string
	store    ports.IdentityStore
	profiles ports.ProfileRepository
	bookings LocalBookingCleaner
	opts     ResolverOptions
	log      zerolog.Logger

	mu         sync.Mutex
	state      domain.SessionState
	resolving  bool
	generation uint64
	sessionID  string
	identity   *domain.Identity
	profile    *domain.Profile
}

// NewSessionResolver returns a resolver for token in the UNINITIALIZED state.
// bookings may be nil when there is no local booking cache to clear.
func NewSessionResolver(
	token string,
	store ports.IdentityStore,
	profiles ports.ProfileRepository,
	bookings LocalBookingCleaner,
	opts ResolverOptions,
	log zerolog.Logger,
) *SessionResolver {
	return &SessionResolver{
		token:    token,
		store:    store,
		profiles: profiles,
		bookings: bookings,
		opts:     opts.withDefaults(),
		log:      log,
		state:    domain.StateUninitialized,
	}
}

// Bootstrap loads the current identity store session for the token and
// resolves its profile. It never leaves the slot resolving.
func (r *SessionResolver) Bootstrap(ctx context.Context) domain.Session {
	gen := r.begin()
	r.bootstrap(ctx, gen)
	r.finish(gen)
	return r.Snapshot()
}

func (r *SessionResolver) bootstrap(ctx context.Context, gen uint64) {
	sess, err := r.store.CurrentSession(ctx, r.token)
	if err != nil {
		r.log.Warn().Err(err).Msg("session bootstrap failed, treating as anonymous")
		r.clear(gen)
		return
	}
	if sess == nil {
		r.clear(gen)
		return
	}
	r.resolve(ctx, gen, sess)
}

// ResolvePending re-runs profile resolution for an authenticated slot that
// holds no profile, which happens when the previous resolution was aborted.
// It is a no-op while another resolution is in flight.
func (r *SessionResolver) ResolvePending(ctx context.Context) domain.Session {
	r.mu.Lock()
	if r.identity == nil || r.profile != nil || r.resolving {
		r.mu.Unlock()
		return r.Snapshot()
	}
	r.generation++
	gen := r.generation
	r.state = domain.StateResolving
	r.resolving = true
	ident := *r.identity
	r.mu.Unlock()

	profile, outcome := r.resolveProfile(ctx, gen, ident)
	r.apply(gen, ident.ID, profile, outcome)
	r.finish(gen)
	return r.Snapshot()
}

// OnSessionChanged applies an identity store session event. A new session
// re-runs profile resolution; a lost session clears the slot immediately.
func (r *SessionResolver) OnSessionChanged(ctx context.Context, ev domain.SessionEvent) domain.Session {
	if ev.Ends() {
		r.mu.Lock()
		r.generation++
		r.reset()
		r.mu.Unlock()
		r.log.Info().Str("session_id", ev.SessionID).Str("kind", string(ev.Kind)).Msg("session ended")
		return r.Snapshot()
	}

	gen := r.begin()
	r.resolve(ctx, gen, ev.Session)
	r.finish(gen)
	return r.Snapshot()
}

// SignOut ends the session at the identity store, tears down the slot and
// drops the account's locally cached bookings. The slot is cleared even when
// the identity store call fails; that error is returned afterwards.
func (r *SessionResolver) SignOut(ctx context.Context) error {
	r.mu.Lock()
	r.generation++
	accountID := ""
	if r.identity != nil {
		accountID = r.identity.ID
	}
	r.reset()
	r.mu.Unlock()

	signOutErr := r.store.SignOut(ctx, r.token)
	if signOutErr != nil {
		r.log.Warn().Err(signOutErr).Str("account_id", accountID).Msg("identity store sign-out failed")
	}

	if accountID != "" && r.bookings != nil {
		if err := r.bookings.ClearLocal(ctx, accountID); err != nil {
			r.log.Warn().Err(err).Str("account_id", accountID).Msg("failed to clear local bookings")
		}
	}
	return signOutErr
}

// Rename changes the display name of the resolved profile. Ephemeral profiles
// are renamed in memory only.
func (r *SessionResolver) Rename(ctx context.Context, name string) (domain.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		verr := domain.NewValidationError()
		verr.Add("name", "is required")
		return r.Snapshot(), verr
	}

	r.mu.Lock()
	if r.identity == nil || r.profile == nil {
		r.mu.Unlock()
		return r.Snapshot(), domain.ErrUnauthenticated
	}
	gen := r.generation
	current := *r.profile
	r.mu.Unlock()

	var updated *domain.Profile
	if current.Ephemeral {
		current.Name = name
		current.UpdatedAt = r.opts.Now()
		updated = &current
	} else {
		p, err := r.profiles.Update(ctx, current.ID, domain.ProfileUpdate{Name: &name})
		if err != nil {
			return r.Snapshot(), err
		}
		updated = p
	}

	r.mu.Lock()
	if gen == r.generation && r.identity != nil && r.identity.ID == current.ID {
		r.profile = updated
	}
	r.mu.Unlock()
	return r.Snapshot(), nil
}

// Snapshot returns a copy of the slot.
func (r *SessionResolver) Snapshot() domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := domain.Session{
		State:     r.state,
		Resolving: r.resolving,
		SessionID: r.sessionID,
	}
	if r.identity != nil {
		ident := *r.identity
		s.Identity = &ident
	}
	if r.profile != nil {
		p := *r.profile
		s.Profile = &p
	}
	return s
}

// begin opens a new resolution and returns its generation.
func (r *SessionResolver) begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.state = domain.StateResolving
	r.resolving = true
	return r.generation
}

// finish closes resolution gen. Later resolutions own the flag when gen is stale.
func (r *SessionResolver) finish(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return
	}
	r.resolving = false
	if r.state == domain.StateResolving {
		if r.identity == nil {
			r.state = domain.StateAnonymous
		} else {
			r.state = domain.StateAuthenticated
		}
	}
}

// adopt installs the identity of sess when gen is still current.
func (r *SessionResolver) adopt(gen uint64, sess *domain.AuthSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return false
	}
	ident := sess.Identity
	if r.profile != nil && r.profile.ID != ident.ID {
		r.profile = nil
	}
	r.identity = &ident
	r.sessionID = sess.ID
	return true
}

func (r *SessionResolver) clear(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen == r.generation {
		r.reset()
	}
}

// reset empties the slot. Callers hold mu.
func (r *SessionResolver) reset() {
	r.identity = nil
	r.profile = nil
	r.sessionID = ""
	r.resolving = false
	r.state = domain.StateAnonymous
}

func (r *SessionResolver) current(gen uint64, accountID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen == r.generation && r.identity != nil && r.identity.ID == accountID
}

// apply installs profile if resolution gen still targets accountID.
func (r *SessionResolver) apply(gen uint64, accountID string, profile *domain.Profile, outcome resolutionOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation || r.identity == nil || r.identity.ID != accountID {
		metrics.ProfileResolutionsTotal.WithLabelValues(string(outcomeStale)).Inc()
		r.log.Debug().Str("account_id", accountID).Msg("discarding stale profile resolution")
		return
	}
	metrics.ProfileResolutionsTotal.WithLabelValues(string(outcome)).Inc()
	if profile != nil {
		r.profile = profile
	}
	r.state = domain.StateAuthenticated
}

// resolve adopts sess and installs its profile when gen is still current.
func (r *SessionResolver) resolve(ctx context.Context, gen uint64, sess *domain.AuthSession) {
	if !r.adopt(gen, sess) {
		return
	}
	profile, outcome := r.resolveProfile(ctx, gen, sess.Identity)
	r.apply(gen, sess.Identity.ID, profile, outcome)
}

// resolveProfile reads the profile of identity, retrying with a fixed backoff
// while it is absent, then provisions it. When provisioning fails the profile
// is kept in memory for this session only.
func (r *SessionResolver) resolveProfile(ctx context.Context, gen uint64, identity domain.Identity) (*domain.Profile, resolutionOutcome) {
	var found *domain.Profile
	backoff := retry.WithMaxRetries(r.opts.Retries, retry.NewConstant(r.opts.RetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if !r.current(gen, identity.ID) {
			return errStaleResolution
		}
		p, err := r.profiles.GetByID(ctx, identity.ID)
		if err != nil {
			if !errors.Is(err, domain.ErrProfileNotFound) {
				r.log.Warn().Err(err).Str("account_id", identity.ID).Msg("profile read failed")
			}
			return retry.RetryableError(err)
		}
		found = p
		return nil
	})
	switch {
	case err == nil:
		return found, outcomeLoaded
	case errors.Is(err, errStaleResolution):
		return nil, outcomeStale
	case ctx.Err() != nil:
		return nil, outcomeAborted
	}

	if !r.current(gen, identity.ID) {
		return nil, outcomeStale
	}

	profile := domain.NewProfile(identity, r.opts.AdminEmail, r.opts.Now())
	created, err := r.profiles.Create(ctx, &profile)
	if err == nil {
		r.log.Info().
			Str("account_id", identity.ID).
			Str("role", string(created.Role)).
			Msg("profile provisioned")
		return created, outcomeCreated
	}

	r.log.Warn().Err(err).Str("account_id", identity.ID).Msg("profile provisioning failed, using ephemeral profile")
	profile.Ephemeral = true
	return &profile, outcomeEphemeral
}

var errStaleResolution = errors.New("session slot moved on")
