package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"portal/internal/domain"
	"portal/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAuthServer mimics the Supabase Auth endpoints the session source
// talks to.
type fakeAuthServer struct {
	mu       sync.Mutex
	signIns  []string // emails seen on the password grant
	signOuts int
	failAuth bool
}

func (f *fakeAuthServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.URL.Path == "/auth/v1/token":
			if f.failAuth {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"msg": "Invalid login credentials"})
				return
			}
			var req struct {
				Email string `json:"email"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			f.signIns = append(f.signIns, req.Email)
			json.NewEncoder(w).Encode(models.Session{
				AccessToken:  "at-1",
				TokenType:    "bearer",
				ExpiresIn:    3600,
				RefreshToken: "rt-1",
				User:         models.User{ID: "u1", Email: req.Email},
			})
		case r.URL.Path == "/auth/v1/logout":
			f.signOuts++
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newSourceFixture(t *testing.T, adminEmail string) (*fakeAuthServer, *SessionSource) {
	t.Helper()
	backend := &fakeAuthServer{}
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	client := NewSessionClient(server.URL, "anon-key")
	return backend, NewSessionSource(client, adminEmail, testLogger())
}

func TestSignInAliasesAdminLogin(t *testing.T) {
	backend, source := newSourceFixture(t, "owner@example.com")

	session, err := source.SignIn(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.User.Email != "owner@example.com" {
		t.Errorf("user email = %q, want aliased admin email", session.User.Email)
	}
	if backend.signIns[0] != "owner@example.com" {
		t.Errorf("grant email = %q, want owner@example.com", backend.signIns[0])
	}
}

func TestSignInRegularEmailIsNotAliased(t *testing.T) {
	backend, source := newSourceFixture(t, "owner@example.com")

	if _, err := source.SignIn(context.Background(), "user@example.com", "secret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if backend.signIns[0] != "user@example.com" {
		t.Errorf("grant email = %q, want user@example.com", backend.signIns[0])
	}
}

func TestSignInFailureIsUnauthorized(t *testing.T) {
	backend, source := newSourceFixture(t, "")
	backend.failAuth = true

	_, err := source.SignIn(context.Background(), "user@example.com", "wrong")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
	if source.AccessToken() != "" {
		t.Error("failed sign-in must not install a session")
	}
}

func TestSignOutIsIdempotent(t *testing.T) {
	backend, source := newSourceFixture(t, "")

	if _, err := source.SignIn(context.Background(), "user@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	if err := source.SignOut(context.Background()); err != nil {
		t.Fatalf("first SignOut: %v", err)
	}
	if err := source.SignOut(context.Background()); err != nil {
		t.Fatalf("second SignOut: %v", err)
	}

	backend.mu.Lock()
	signOuts := backend.signOuts
	backend.mu.Unlock()
	if signOuts != 1 {
		t.Errorf("backend sign-outs = %d, want 1 (second call is a local no-op)", signOuts)
	}
	if source.AccessToken() != "" {
		t.Error("sign-out must clear the local session")
	}
}

func TestSessionChangeNotifications(t *testing.T) {
	_, source := newSourceFixture(t, "")

	var events []*models.Session
	unsubscribe := source.OnSessionChange(func(s *models.Session) {
		events = append(events, s)
	})
	defer unsubscribe()

	if _, err := source.SignIn(context.Background(), "user@example.com", "secret"); err != nil {
		t.Fatal(err)
	}
	if err := source.SignOut(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(events) != 2 || events[0] == nil || events[1] != nil {
		t.Fatalf("events = %v, want [session, nil]", events)
	}
}
