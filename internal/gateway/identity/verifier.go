// Package identity verifies bearer tokens against a Supabase-compatible
// auth endpoint.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var (
	ErrMissingToken = errors.New("no authorization token")
	ErrInvalidToken = errors.New("invalid token")
)

// User is the subset of the identity record the API cares about.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Verifier resolves a bearer token to a user by calling GET {base}/auth/v1/user.
type Verifier struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Verifier {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Verifier{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// Verify returns ErrInvalidToken for any rejection by the provider, or a
// transport error when the provider could not be asked.
func (v *Verifier) Verify(ctx context.Context, token string) (User, error) {
	if strings.TrimSpace(token) == "" {
		return User{}, ErrMissingToken
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if v.cfg.APIKey != "" {
		req.Header.Set("apikey", v.cfg.APIKey)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("identity provider: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return User{}, fmt.Errorf("identity provider: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return User{}, ErrInvalidToken
	case resp.StatusCode/100 != 2:
		return User{}, fmt.Errorf("identity provider status=%d", resp.StatusCode)
	}
	res := gjson.ParseBytes(body)
	user := User{ID: res.Get("id").String(), Email: res.Get("email").String()}
	if user.ID == "" {
		return User{}, ErrInvalidToken
	}
	return user, nil
}
