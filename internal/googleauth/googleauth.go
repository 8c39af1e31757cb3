// Package googleauth manages the Google account connection used by the
// sync backends: the OAuth authorization-code flow, token persistence in
// the key-value store, and authenticated requests to Google APIs.
package googleauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"mymeals/internal/store"
)

var (
	ErrNotConfigured = errors.New("google client credentials not configured")
	ErrNotConnected  = errors.New("google account not connected")
	ErrTokenExpired  = errors.New("google access token expired")
)

// Scopes requested from Google: identity plus the Drive and Sheets access
// the sync backends need. drive.file limits Drive access to files this app
// created; drive.readonly lets the spreadsheet picker list existing sheets.
var Scopes = []string{
	"openid",
	"email",
	"https://www.googleapis.com/auth/drive.file",
	"https://www.googleapis.com/auth/drive.readonly",
	"https://www.googleapis.com/auth/spreadsheets",
}

const revokeURL = "https://oauth2.googleapis.com/revoke"

// Options configures the Google OAuth client.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Account identifies the connected Google account.
type Account struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Service holds the OAuth configuration and the persisted connection state.
type Service struct {
	mu     sync.Mutex
	config *oauth2.Config
	store  store.Store

	// Overridable in tests.
	client  *http.Client
	jwksURL string
	revoke  string
	now     func() time.Time
}

func NewService(opts Options, s store.Store) *Service {
	return &Service{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
		store:   s,
		client:  http.DefaultClient,
		jwksURL: googleJWKSURL,
		revoke:  revokeURL,
		now:     time.Now,
	}
}

// Configured reports whether client credentials are present. An
// unconfigured service keeps the rest of the app fully usable offline.
func (s *Service) Configured() bool {
	return s.config.ClientID != "" && s.config.ClientSecret != ""
}

// AuthCodeURL builds the Google consent URL for the given CSRF state and
// ID-token nonce.
func (s *Service) AuthCodeURL(state, nonce string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	return s.config.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("nonce", nonce),
	), nil
}

// Exchange trades the authorization code for tokens, verifies the ID token
// and persists the connection.
func (s *Service) Exchange(ctx context.Context, code, nonce string) (*Account, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, errors.New("missing Google id_token")
	}
	claims, err := s.parseGoogleIDToken(ctx, idToken, nonce)
	if err != nil {
		return nil, err
	}
	account := Account{Email: claims.Email, Name: claims.Name}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveValue(store.AccessTokenKey, token.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to save access token: %w", err)
	}
	expiry := strconv.FormatInt(token.Expiry.UnixMilli(), 10)
	if err := s.store.SaveValue(store.TokenExpiryKey, expiry); err != nil {
		return nil, fmt.Errorf("failed to save token expiry: %w", err)
	}
	if err := s.store.SaveValue(store.AccountKey, account.Email); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	return &account, nil
}

// Connected reports whether a non-expired access token is stored.
func (s *Service) Connected() bool {
	_, err := s.AccessToken()
	return err == nil
}

// Account returns the connected account's email address.
func (s *Service) Account() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.LoadValue(store.AccountKey)
}

// AccessToken returns the stored access token, or ErrNotConnected when no
// token is stored, or ErrTokenExpired when the stored token's expiry has
// passed. An expired token is cleared as a side effect.
func (s *Service) AccessToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.store.LoadValue(store.AccessTokenKey)
	if !ok || token == "" {
		return "", ErrNotConnected
	}
	raw, ok := s.store.LoadValue(store.TokenExpiryKey)
	if ok {
		millis, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err == nil && !s.now().Before(time.UnixMilli(millis)) {
			s.clearLocked()
			return "", ErrTokenExpired
		}
	}
	return token, nil
}

// Disconnect revokes the token at Google and clears the local connection.
// Revocation failures are not fatal; the local state is cleared regardless.
func (s *Service) Disconnect(ctx context.Context) error {
	token, err := s.AccessToken()
	if err == nil && token != "" {
		form := url.Values{"token": {token}}
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, s.revoke, strings.NewReader(form.Encode()))
		if reqErr == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if resp, doErr := s.client.Do(req); doErr == nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}
	}
	s.ForceDisconnect()
	return nil
}

// ForceDisconnect clears the stored connection without calling Google. The
// API clients use it when Google rejects the token.
func (s *Service) ForceDisconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Service) clearLocked() {
	for _, key := range []string{store.AccessTokenKey, store.TokenExpiryKey, store.AccountKey} {
		if err := s.store.DeleteValue(key); err != nil {
			// Nothing the caller can do about a failed cleanup.
			continue
		}
	}
}

// Do sends an authenticated request. A 401 response clears the connection
// and returns ErrTokenExpired so callers surface a reconnect prompt.
func (s *Service) Do(req *http.Request) (*http.Response, error) {
	token, err := s.AccessToken()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		s.ForceDisconnect()
		return nil, ErrTokenExpired
	}
	return resp, nil
}
