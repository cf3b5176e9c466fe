package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"portal/internal/domain/models"
)

// SessionSource holds the process-local session artifacts and notifies
// subscribers of out-of-band changes (expiry discovered on refresh,
// sign-in, sign-out). It is the concrete identity collaborator handed to
// the session store.
type SessionSource struct {
	client *SessionClient
	logger *slog.Logger

	// Literal login "admin" is mapped to this address before the
	// password grant. Convenience alias, not a security boundary.
	adminEmail string

	mu        sync.Mutex
	session   *models.Session
	expiresAt time.Time
	subs      map[int]func(*models.Session)
	nextSub   int
}

// NewSessionSource creates a session source on top of the auth client.
func NewSessionSource(client *SessionClient, adminEmail string, logger *slog.Logger) *SessionSource {
	return &SessionSource{
		client:     client,
		logger:     logger,
		adminEmail: adminEmail,
		subs:       make(map[int]func(*models.Session)),
	}
}

// SignIn performs the password grant and installs the resulting session.
func (s *SessionSource) SignIn(ctx context.Context, login, password string) (*models.Session, error) {
	email := login
	if login == "admin" && s.adminEmail != "" {
		email = s.adminEmail
	}

	session, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.install(session)
	s.logger.Info("signed in", "user_id", session.User.ID)
	return session, nil
}

// SignUp registers a new user and installs the session when the auth
// collaborator returns one.
func (s *SessionSource) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	session, err := s.client.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if session.AccessToken != "" {
		s.install(session)
	}
	return session, nil
}

// CurrentSession returns the held session, refreshing it when expired.
// Returns (nil, nil) when signed out. A failed refresh clears the local
// artifacts before returning the error.
func (s *SessionSource) CurrentSession(ctx context.Context) (*models.Session, error) {
	s.mu.Lock()
	session := s.session
	expired := session != nil && !s.expiresAt.IsZero() && time.Now().After(s.expiresAt)
	s.mu.Unlock()

	if session == nil {
		return nil, nil
	}
	if !expired {
		return session, nil
	}

	refreshed, err := s.client.Refresh(ctx, session.RefreshToken)
	if err != nil {
		s.logger.Warn("session refresh failed, clearing local session", "error", err)
		s.clear()
		return nil, err
	}

	s.install(refreshed)
	return refreshed, nil
}

// AccessToken returns the current bearer token, or empty when signed out.
func (s *SessionSource) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.AccessToken
}

// SignOut revokes the session with the collaborator and clears local
// state. Idempotent: signing out while signed out is a no-op.
func (s *SessionSource) SignOut(ctx context.Context) error {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session == nil {
		return nil
	}

	err := s.client.SignOut(ctx, session.AccessToken)
	// Local artifacts are cleared regardless: the user asked to leave.
	s.clear()
	return err
}

// OnSessionChange registers a callback invoked with the new session (nil
// on sign-out). Returns an unsubscribe func.
func (s *SessionSource) OnSessionChange(fn func(*models.Session)) func() {
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

func (s *SessionSource) install(session *models.Session) {
	s.mu.Lock()
	s.session = session
	if session.ExpiresIn > 0 {
		s.expiresAt = time.Now().Add(time.Duration(session.ExpiresIn) * time.Second)
	} else {
		s.expiresAt = time.Time{}
	}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
}

func (s *SessionSource) clear() {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return
	}
	s.session = nil
	s.expiresAt = time.Time{}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
}

// snapshotSubs must be called with mu held.
func (s *SessionSource) snapshotSubs() []func(*models.Session) {
	subs := make([]func(*models.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}
