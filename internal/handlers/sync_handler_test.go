package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mymeals/internal/googleauth"
	"mymeals/internal/notify"
	"mymeals/internal/store"
	"mymeals/internal/sync"
)

type stubBackend struct {
	fetchErr error
	storeErr error
	stored   int
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Fetch(ctx context.Context) (sync.Snapshot, bool, error) {
	return sync.Snapshot{}, false, b.fetchErr
}

func (b *stubBackend) Store(ctx context.Context, snapshot sync.Snapshot) error {
	if b.storeErr != nil {
		return b.storeErr
	}
	b.stored++
	return nil
}

func newSyncHandler(backend sync.Backend, opts googleauth.Options) (*SyncHandler, store.Store) {
	s := store.NewMemory()
	auth := googleauth.NewService(opts, s)
	engine := sync.NewEngine(backend, s, notify.NewBroadcaster())
	return NewSyncHandler(auth, engine, nil), s
}

func TestStartOAuthUnconfigured(t *testing.T) {
	h, _ := newSyncHandler(&stubBackend{}, googleauth.Options{})

	req := httptest.NewRequest("GET", "/auth/google/start", nil)
	rr := httptest.NewRecorder()
	h.StartOAuth(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestStartOAuthRedirects(t *testing.T) {
	h, _ := newSyncHandler(&stubBackend{}, googleauth.Options{
		ClientID:     "client-id",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/google/callback",
	})

	req := httptest.NewRequest("GET", "/auth/google/start", nil)
	rr := httptest.NewRecorder()
	h.StartOAuth(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rr.Code)
	}
	location := rr.Header().Get("Location")
	if !strings.Contains(location, "client_id=client-id") || !strings.Contains(location, "state=") {
		t.Errorf("unexpected redirect target: %s", location)
	}

	var names []string
	for _, c := range rr.Result().Cookies() {
		names = append(names, c.Name)
	}
	for _, want := range []string{"oauth_state", "oauth_nonce"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing %s cookie, got %v", want, names)
		}
	}
}

func TestOAuthCallbackRejectsBadState(t *testing.T) {
	h, _ := newSyncHandler(&stubBackend{}, googleauth.Options{ClientID: "id", ClientSecret: "sec"})

	req := httptest.NewRequest("GET", "/auth/google/callback?state=forged&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "expected"})
	rr := httptest.NewRecorder()
	h.OAuthCallback(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSyncStatus(t *testing.T) {
	h, s := newSyncHandler(&stubBackend{}, googleauth.Options{ClientID: "id", ClientSecret: "sec"})
	s.SaveValue(store.AccessTokenKey, "token")
	s.SaveValue(store.AccountKey, "ola@example.com")

	req := httptest.NewRequest("GET", "/api/sync/status", nil)
	rr := httptest.NewRecorder()
	h.Status(rr, req)

	body := rr.Body.String()
	for _, want := range []string{`"configured":true`, `"connected":true`, `"account":"ola@example.com"`, `"backend":"stub"`} {
		if !strings.Contains(body, want) {
			t.Errorf("status body missing %s: %s", want, body)
		}
	}
}

func TestPushStoresSnapshot(t *testing.T) {
	backend := &stubBackend{}
	h, _ := newSyncHandler(backend, googleauth.Options{ClientID: "id", ClientSecret: "sec"})

	req := httptest.NewRequest("POST", "/api/sync/push", nil)
	rr := httptest.NewRecorder()
	h.Push(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d (%s)", rr.Code, rr.Body.String())
	}
	if backend.stored != 1 {
		t.Errorf("stored = %d, want 1", backend.stored)
	}
}

func TestSyncErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"sync in progress", sync.ErrSyncInProgress, http.StatusConflict},
		{"token expired", googleauth.ErrTokenExpired, http.StatusUnauthorized},
		{"not connected", googleauth.ErrNotConnected, http.StatusBadRequest},
		{"no spreadsheet", sync.ErrNoSpreadsheet, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &stubBackend{storeErr: tt.err}
			h, _ := newSyncHandler(backend, googleauth.Options{ClientID: "id", ClientSecret: "sec"})

			req := httptest.NewRequest("POST", "/api/sync/push", nil)
			rr := httptest.NewRecorder()
			h.Push(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestSpreadsheetRoutesNeedSheetsBackend(t *testing.T) {
	h, _ := newSyncHandler(&stubBackend{}, googleauth.Options{ClientID: "id", ClientSecret: "sec"})

	req := httptest.NewRequest("GET", "/api/sync/spreadsheets", nil)
	rr := httptest.NewRecorder()
	h.ListSpreadsheets(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without sheets backend", rr.Code)
	}
}
