// Package session owns the current identity and its derived role. It is
// handed to consumers as an explicit handle; nothing in this module
// reads ambient global session state.
//
// The store is a small state machine: it starts bootstrapping, asks the
// identity collaborator for an existing session, and settles into a
// ready state either signed out or signed in. Role is never part of the
// identity token; it is resolved separately and can lag behind identity,
// so a signed-in snapshot can still be loading until the role settles.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"portal/internal/domain"
	"portal/internal/domain/models"
)

// State is the lifecycle phase of the store.
type State int

const (
	// StateBootstrapping means the initial session lookup has not
	// settled yet.
	StateBootstrapping State = iota
	// StateReady means the lookup settled, signed in or out.
	StateReady
	// StateDegraded is the terminal fallback: the bootstrap deadline
	// expired and the store forced a signed-out ready state. It behaves
	// like ready(signed-out) for consumers.
	StateDegraded
)

// Snapshot is an immutable view of the store handed to subscribers.
type Snapshot struct {
	State       State
	User        *models.User
	Role        models.Role
	RolePending bool
}

// Loading reports whether protected content must not render yet. It is
// true in every state except the two settled ready variants
// (signed out, or signed in with a resolved role).
func (s Snapshot) Loading() bool {
	switch s.State {
	case StateBootstrapping:
		return true
	case StateReady:
		return s.User != nil && s.RolePending
	default:
		return false
	}
}

// SignedIn reports whether an identity is present.
func (s Snapshot) SignedIn() bool { return s.User != nil }

// IsAdmin reports whether the resolved role is admin. False while the
// role is pending: absence of a role must never grant privilege.
func (s Snapshot) IsAdmin() bool { return s.Role == models.RoleAdmin }

// Authenticator is the identity collaborator contract the store
// consumes (implemented by auth.SessionSource).
type Authenticator interface {
	// CurrentSession returns the existing session, (nil, nil) when
	// signed out.
	CurrentSession(ctx context.Context) (*models.Session, error)
	// OnSessionChange registers a callback for out-of-band session
	// changes (external expiry, sign-out elsewhere). Returns an
	// unsubscribe func.
	OnSessionChange(fn func(*models.Session)) func()
	// SignOut revokes the session with the collaborator.
	SignOut(ctx context.Context) error
}

// RoleReader fetches the role record for a user id. Must return
// domain.ErrNotFound when no record exists.
type RoleReader interface {
	GetByID(ctx context.Context, userID string) (*models.Profile, error)
}

// Config carries the two bootstrap deadlines. The first surfaces a
// user-actionable escape hatch; the second forces a signed-out ready
// state so a stuck collaborator can never hang the UI forever. A single
// hard timeout would hide the problem from the user; no timeout risks
// infinite loading.
type Config struct {
	EscapeHatchAfter time.Duration
	ForceReadyAfter  time.Duration
	// OnEscapeHatch is invoked once if bootstrap is still unsettled at
	// the first deadline ("continue anyway" affordance).
	OnEscapeHatch func()
}

// Store is the session store.
type Store struct {
	authn  Authenticator
	roles  RoleReader
	cfg    Config
	logger *slog.Logger

	mu          sync.Mutex
	state       State
	user        *models.User
	role        models.Role
	rolePending bool
	closed      bool
	subs        map[int]func(Snapshot)
	nextSub     int
	unsubscribe func()
	escapeTimer *time.Timer
	forceTimer  *time.Timer
}

// NewStore creates a session store. Call Initialize to start the
// bootstrap.
func NewStore(authn Authenticator, roles RoleReader, cfg Config, logger *slog.Logger) *Store {
	return &Store{
		authn:  authn,
		roles:  roles,
		cfg:    cfg,
		logger: logger,
		state:  StateBootstrapping,
		subs:   make(map[int]func(Snapshot)),
	}
}

// Initialize arms the bootstrap deadlines, subscribes to out-of-band
// session changes, and starts the session lookup in the background. It
// never blocks: a stuck collaborator is raced by the deadlines.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.cfg.EscapeHatchAfter > 0 {
		s.escapeTimer = time.AfterFunc(s.cfg.EscapeHatchAfter, s.escapeHatch)
	}
	if s.cfg.ForceReadyAfter > 0 {
		s.forceTimer = time.AfterFunc(s.cfg.ForceReadyAfter, s.forceReady)
	}
	s.unsubscribe = s.authn.OnSessionChange(func(sess *models.Session) {
		s.handleSessionChange(ctx, sess)
	})
	s.mu.Unlock()

	go s.bootstrap(ctx)
}

func (s *Store) bootstrap(ctx context.Context) {
	sess, err := s.authn.CurrentSession(ctx)

	s.mu.Lock()
	if s.closed || s.state == StateDegraded {
		// Deadline already forced a fallback; drop the late response.
		s.mu.Unlock()
		return
	}

	if err != nil {
		s.logger.Error("session bootstrap failed, clearing session", "error", err)
		s.clearLocked()
		s.mu.Unlock()
		s.notify()
		return
	}

	if sess == nil {
		s.clearLocked()
		s.mu.Unlock()
		s.notify()
		return
	}

	user := sess.User
	s.user = &user
	s.role = ""
	s.rolePending = true
	s.state = StateReady
	s.mu.Unlock()
	s.notify()

	s.resolveRole(ctx, user.ID)
}

// resolveRole fetches the user's role record and terminates the pending
// state whatever the outcome. A missing record or a fetch error defaults
// to the least privileged role; it must never default to admin.
func (s *Store) resolveRole(ctx context.Context, userID string) {
	role := models.RoleUser

	profile, err := s.roles.GetByID(ctx, userID)
	switch {
	case err == nil:
		if profile.Role != "" {
			role = profile.Role
		}
	case errors.Is(err, domain.ErrNotFound):
		s.logger.Debug("no role record yet, defaulting to user", "user_id", userID)
	default:
		s.logger.Error("role resolution failed, defaulting to least privilege", "user_id", userID, "error", err)
	}

	s.mu.Lock()
	if s.closed || s.state == StateDegraded || s.user == nil || s.user.ID != userID {
		// The world moved on while we were fetching; drop the result.
		s.mu.Unlock()
		return
	}
	s.role = role
	s.rolePending = false
	s.mu.Unlock()
	s.notify()
}

// handleSessionChange reacts to out-of-band session changes from the
// collaborator: a sign-out elsewhere clears identity and role, a new
// session re-runs role resolution.
func (s *Store) handleSessionChange(ctx context.Context, sess *models.Session) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if sess == nil {
		s.clearLocked()
		s.mu.Unlock()
		s.notify()
		return
	}

	user := sess.User
	s.user = &user
	s.role = ""
	s.rolePending = true
	s.state = StateReady
	s.mu.Unlock()
	s.notify()

	go s.resolveRole(ctx, user.ID)
}

// SignOut clears local identity and role synchronously with the backend
// sign-out call. Idempotent.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.authn.SignOut(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	s.clearLocked()
	s.mu.Unlock()
	s.notify()
	return err
}

// Subscribe registers a callback invoked with a snapshot on every state
// change. Returns an unsubscribe func.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
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

// Snapshot returns the current view of the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close tears the store down: deadlines are disarmed, the collaborator
// subscription is dropped, and any in-flight bootstrap or role fetch is
// discarded on arrival instead of being applied to a dead store.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimersLocked()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// escapeHatch fires at the first deadline: if bootstrap is still
// unsettled, surface the "continue anyway" affordance instead of
// hanging silently.
func (s *Store) escapeHatch() {
	s.mu.Lock()
	stuck := !s.closed && s.snapshotLocked().Loading()
	fn := s.cfg.OnEscapeHatch
	s.mu.Unlock()

	if !stuck {
		return
	}
	s.logger.Warn("session bootstrap deadline hit, offering escape hatch")
	if fn != nil {
		fn()
	}
}

// forceReady fires at the second deadline and unconditionally forces a
// signed-out ready state.
func (s *Store) forceReady() {
	s.mu.Lock()
	if s.closed || !s.snapshotLocked().Loading() {
		s.mu.Unlock()
		return
	}
	s.logger.Warn("session bootstrap never settled, forcing signed-out state")
	s.user = nil
	s.role = ""
	s.rolePending = false
	s.state = StateDegraded
	s.mu.Unlock()
	s.notify()
}

// clearLocked resets to the signed-out ready state. Caller holds mu.
func (s *Store) clearLocked() {
	s.user = nil
	s.role = ""
	s.rolePending = false
	s.state = StateReady
	s.stopTimersLocked()
}

// stopTimersLocked disarms the bootstrap deadlines. Caller holds mu.
func (s *Store) stopTimersLocked() {
	if s.escapeTimer != nil {
		s.escapeTimer.Stop()
		s.escapeTimer = nil
	}
	if s.forceTimer != nil {
		s.forceTimer.Stop()
		s.forceTimer = nil
	}
}

// snapshotLocked builds a Snapshot. Caller holds mu.
func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       s.state,
		Role:        s.role,
		RolePending: s.rolePending,
	}
	if s.user != nil {
		user := *s.user
		snap.User = &user
	}
	return snap
}

func (s *Store) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
