package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"portal/internal/domain"
	"portal/internal/domain/models"
)

// SessionClient talks to the Supabase Auth API with the anon key. It
// covers the regular authentication flow: password grant, sign-up,
// refresh and sign-out.
type SessionClient struct {
	supabaseURL string
	anonKey     string
	httpClient  *http.Client
}

// NewSessionClient creates a new Supabase Auth client for end-user
// session operations.
func NewSessionClient(supabaseURL, anonKey string) *SessionClient {
	return &SessionClient{
		supabaseURL: supabaseURL,
		anonKey:     anonKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshGrantRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// authErrorResponse covers both error shapes the auth API produces.
type authErrorResponse struct {
	Msg              string `json:"msg"`
	ErrorCode        string `json:"error_code"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *authErrorResponse) message() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Error != "":
		return e.Error
	}
	return ""
}

// SignIn exchanges credentials for a session via the password grant.
func (c *SessionClient) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	url := fmt.Sprintf("%s/auth/v1/token?grant_type=password", c.supabaseURL)
	return c.requestSession(ctx, url, passwordGrantRequest{Email: email, Password: password})
}

// SignUp registers a new user. When email confirmation is disabled the
// response already carries a usable session.
func (c *SessionClient) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	url := fmt.Sprintf("%s/auth/v1/signup", c.supabaseURL)
	return c.requestSession(ctx, url, passwordGrantRequest{Email: email, Password: password})
}

// Refresh exchanges a refresh token for a fresh session.
func (c *SessionClient) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	url := fmt.Sprintf("%s/auth/v1/token?grant_type=refresh_token", c.supabaseURL)
	return c.requestSession(ctx, url, refreshGrantRequest{RefreshToken: refreshToken})
}

// SignOut revokes the session behind an access token. A 401 is treated
// as success: the token is already dead.
func (c *SessionClient) SignOut(ctx context.Context, accessToken string) error {
	url := fmt.Sprintf("%s/auth/v1/logout", c.supabaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create logout request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusUnauthorized:
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("sign out failed with status %d: %s", resp.StatusCode, string(body))
}

// requestSession posts a grant payload and decodes the session bundle.
func (c *SessionClient) requestSession(ctx context.Context, url string, payload interface{}) (*models.Session, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var authErr authErrorResponse
		if err := json.Unmarshal(body, &authErr); err == nil && authErr.message() != "" {
			return nil, fmt.Errorf("%s: %w", authErr.message(), domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("auth request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var session models.Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}

	return &session, nil
}
