package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
)

var errBoom = errors.New("boom")

// ---------------------------------------------------------------------------
// Identity store
// ---------------------------------------------------------------------------

type stubIdentityStore struct {
	mu          sync.Mutex
	sessions    map[string]*domain.AuthSession // token -> session
	signOutErr  error
	signedOut   []string
	currentHits int
}

func newStubIdentityStore() *stubIdentityStore {
	return &stubIdentityStore{sessions: make(map[string]*domain.AuthSession)}
}

func (s *stubIdentityStore) add(token, sessionID string, ident domain.Identity) *domain.AuthSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &domain.AuthSession{ID: sessionID, Token: token, Identity: ident, ExpiresAt: time.Now().Add(time.Hour)}
	s.sessions[token] = sess
	return sess
}

func (s *stubIdentityStore) SignUp(_ context.Context, email, _, name string) (*domain.Identity, error) {
	return &domain.Identity{ID: "acc-" + email, Email: email, Metadata: map[string]string{"name": name}}, nil
}

func (s *stubIdentityStore) SignIn(_ context.Context, email, password string) (*domain.AuthSession, error) {
	if password != "secret1" {
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials, nil)
	}
	return s.add("tok-"+email, "sid-"+email, domain.Identity{ID: "acc-" + email, Email: email}), nil
}

func (s *stubIdentityStore) SignOut(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedOut = append(s.signedOut, token)
	if sess, ok := s.sessions[token]; ok {
		for t, other := range s.sessions {
			if other.ID == sess.ID {
				delete(s.sessions, t)
			}
		}
	}
	return s.signOutErr
}

// expire moves the expiry of token into the past.
func (s *stubIdentityStore) expire(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		sess.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

func (s *stubIdentityStore) CurrentSession(_ context.Context, token string) (*domain.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentHits++
	sess, ok := s.sessions[token]
	if !ok || !time.Now().Before(sess.ExpiresAt) {
		return nil, nil
	}
	clone := *sess
	return &clone, nil
}

func (s *stubIdentityStore) Refresh(_ context.Context, token string) (*domain.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, domain.NewAuthError(domain.AuthInvalidToken, nil)
	}
	fresh := *sess
	fresh.Token = token + "-r"
	fresh.ExpiresAt = sess.ExpiresAt.Add(time.Hour)
	s.sessions[fresh.Token] = &fresh
	out := fresh
	return &out, nil
}

func (s *stubIdentityStore) ConfirmEmail(_ context.Context, _ string) (*domain.Identity, error) {
	return nil, domain.NewAuthError(domain.AuthInvalidToken, nil)
}

func (s *stubIdentityStore) Subscribe(func(domain.SessionEvent)) func() { return func() {} }

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

type stubProfileRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Profile
	reads     map[string]int
	createErr error
	created   int
	// gate, when set, blocks GetByID for the listed account until the channel
	// is closed. entered receives the account id on every blocked call.
	gate    map[string]chan struct{}
	entered chan string
	// afterRead runs outside the lock after every GetByID with the read count.
	afterRead func(id string, reads int)
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{
		byID:    make(map[string]*domain.Profile),
		reads:   make(map[string]int),
		gate:    make(map[string]chan struct{}),
		entered: make(chan string, 16),
	}
}

func (r *stubProfileRepo) put(p domain.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = &p
}

func (r *stubProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	r.reads[id]++
	reads := r.reads[id]
	gate := r.gate[id]
	r.mu.Unlock()

	if gate != nil {
		r.entered <- id
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.mu.Lock()
	p, ok := r.byID[id]
	var clone domain.Profile
	if ok {
		clone = *p
	}
	after := r.afterRead
	r.mu.Unlock()

	if after != nil {
		after(id, reads)
	}
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &clone, nil
}

func (r *stubProfileRepo) Create(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.byID[p.ID]; ok {
		return nil, domain.ErrProfileConflict
	}
	r.created++
	clone := *p
	r.byID[p.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubProfileRepo) Update(_ context.Context, id string, u domain.ProfileUpdate) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.byID {
		if p.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *stubProfileRepo) readsOf(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads[id]
}

// ---------------------------------------------------------------------------
// Booking copies
// ---------------------------------------------------------------------------

// memBookings backs both the cache and the table stubs.
type memBookings struct {
	mu      sync.Mutex
	byID    map[string]*domain.Booking
	order   []string
	putErr  error
	listErr error
	updErr  error
}

func newMemBookings() *memBookings {
	return &memBookings{byID: make(map[string]*domain.Booking)}
}

func (m *memBookings) store(b *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	clone := *b
	if _, ok := m.byID[b.ID]; !ok {
		m.order = append(m.order, b.ID)
	}
	m.byID[b.ID] = &clone
	return nil
}

func (m *memBookings) list(accountID string) ([]*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*domain.Booking
	for _, id := range m.order {
		b, ok := m.byID[id]
		if !ok || (accountID != "" && b.AccountID != accountID) {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (m *memBookings) setStatus(id string, status domain.BookingStatus) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updErr != nil {
		return nil, m.updErr
	}
	b, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	b.Status = status
	clone := *b
	return &clone, nil
}

type stubBookingCache struct{ *memBookings }

func (c stubBookingCache) Put(_ context.Context, b *domain.Booking) error { return c.store(b) }
func (c stubBookingCache) ListByAccount(_ context.Context, accountID string) ([]*domain.Booking, error) {
	return c.list(accountID)
}
func (c stubBookingCache) ListAll(context.Context) ([]*domain.Booking, error) { return c.list("") }
func (c stubBookingCache) UpdateStatus(_ context.Context, id string, s domain.BookingStatus) (*domain.Booking, error) {
	return c.setStatus(id, s)
}
func (c stubBookingCache) ClearAccount(_ context.Context, accountID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, b := range c.byID {
		if b.AccountID == accountID {
			delete(c.byID, id)
		}
	}
	return nil
}

type stubBookingTable struct{ *memBookings }

func (t stubBookingTable) Insert(_ context.Context, b *domain.Booking) error { return t.store(b) }
func (t stubBookingTable) ListByAccount(_ context.Context, accountID string) ([]*domain.Booking, error) {
	return t.list(accountID)
}
func (t stubBookingTable) ListAll(context.Context) ([]*domain.Booking, error) { return t.list("") }
func (t stubBookingTable) UpdateStatus(_ context.Context, id string, s domain.BookingStatus) (*domain.Booking, error) {
	return t.setStatus(id, s)
}

type stubCleaner struct {
	mu      sync.Mutex
	cleared []string
}

func (c *stubCleaner) ClearLocal(_ context.Context, accountID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared = append(c.cleared, accountID)
	return nil
}

// ---------------------------------------------------------------------------
// Routes, checkouts, payments, audit
// ---------------------------------------------------------------------------

type stubRouteRepo struct {
	byID map[string]*domain.Route
}

func newStubRouteRepo(routes ...domain.Route) *stubRouteRepo {
	r := &stubRouteRepo{byID: make(map[string]*domain.Route)}
	for _, rt := range routes {
		rt := rt
		r.byID[rt.ID] = &rt
	}
	return r
}

func (r *stubRouteRepo) List(context.Context) ([]*domain.Route, error) {
	out := make([]*domain.Route, 0, len(r.byID))
	for _, rt := range r.byID {
		clone := *rt
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubRouteRepo) FindByID(_ context.Context, id string) (*domain.Route, error) {
	rt, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRouteNotFound
	}
	clone := *rt
	return &clone, nil
}

func (r *stubRouteRepo) Create(_ context.Context, rt *domain.Route) error {
	clone := *rt
	r.byID[rt.ID] = &clone
	return nil
}

func (r *stubRouteRepo) Update(_ context.Context, rt *domain.Route) error {
	if _, ok := r.byID[rt.ID]; !ok {
		return domain.ErrRouteNotFound
	}
	clone := *rt
	r.byID[rt.ID] = &clone
	return nil
}

func (r *stubRouteRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrRouteNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubRouteRepo) Count(context.Context) (int64, error) { return int64(len(r.byID)), nil }

type stubCheckoutStore struct {
	pending map[string]*ports.PendingCheckout
	claimed map[string]bool
}

func newStubCheckoutStore() *stubCheckoutStore {
	return &stubCheckoutStore{
		pending: make(map[string]*ports.PendingCheckout),
		claimed: make(map[string]bool),
	}
}

func (s *stubCheckoutStore) Save(_ context.Context, c *ports.PendingCheckout, _ time.Duration) error {
	clone := *c
	s.pending[c.Payment.Reference] = &clone
	return nil
}

func (s *stubCheckoutStore) Find(_ context.Context, ref string) (*ports.PendingCheckout, error) {
	c, ok := s.pending[ref]
	if !ok {
		return nil, domain.ErrCheckoutNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *stubCheckoutStore) Claim(_ context.Context, ref string) (bool, error) {
	if s.claimed[ref] {
		return false, nil
	}
	s.claimed[ref] = true
	return true, nil
}

func (s *stubCheckoutStore) Release(_ context.Context, ref string) error {
	delete(s.claimed, ref)
	return nil
}

func (s *stubCheckoutStore) Delete(_ context.Context, ref string) error {
	delete(s.pending, ref)
	return nil
}

type widgetOutcome int

const (
	widgetSucceeds widgetOutcome = iota
	widgetCancels
	widgetFails
)

type stubWidget struct {
	outcome widgetOutcome
	opened  []domain.PaymentRequest
}

func (w *stubWidget) Open(_ context.Context, req domain.PaymentRequest) (*domain.PaymentSession, error) {
	w.opened = append(w.opened, req)
	return &domain.PaymentSession{Reference: req.Reference, AuthorizationURL: "https://pay.test/" + req.Reference}, nil
}

func (w *stubWidget) Complete(_ context.Context, req domain.PaymentRequest, cb domain.PaymentCallbacks) error {
	switch w.outcome {
	case widgetCancels:
		cb.OnCancelled()
	case widgetFails:
		return errBoom
	default:
		cb.OnSuccess(domain.PaymentResult{Reference: req.Reference, TransactionID: "tx-1", Status: "success"})
	}
	return nil
}

type stubAudit struct {
	events []*domain.BookingStatusEvent
	err    error
}

func (a *stubAudit) InsertStatusEvent(_ context.Context, e *domain.BookingStatusEvent) error {
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, e)
	return nil
}
