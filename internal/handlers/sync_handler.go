package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"mymeals/internal/googleauth"
	"mymeals/internal/security"
	"mymeals/internal/sync"
)

// SyncHandler drives the Google connection and the cloud sync engine. The
// sheets backend is nil unless it is the active backend.
type SyncHandler struct {
	auth   *googleauth.Service
	engine *sync.Engine
	sheets *sync.SheetsBackend
}

func NewSyncHandler(auth *googleauth.Service, engine *sync.Engine, sheets *sync.SheetsBackend) *SyncHandler {
	return &SyncHandler{auth: auth, engine: engine, sheets: sheets}
}

type syncStatusResponse struct {
	Configured    bool   `json:"configured"`
	Connected     bool   `json:"connected"`
	Account       string `json:"account,omitempty"`
	Backend       string `json:"backend"`
	Syncing       bool   `json:"syncing"`
	LastSyncedAt  string `json:"lastSyncedAt,omitempty"`
	SpreadsheetID string `json:"spreadsheetId,omitempty"`
}

// StartOAuth begins the Google consent flow. State and nonce are kept in
// short-lived cookies and checked on callback.
func (h *SyncHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	state := security.GenerateSessionID()
	nonce := security.GenerateSessionID()

	authURL, err := h.auth.AuthCodeURL(state, nonce)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Google sync is not configured", "", nil)
		return
	}

	setTempCookie(w, r, "oauth_state", state, 10*time.Minute)
	setTempCookie(w, r, "oauth_nonce", nonce, 10*time.Minute)

	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

// OAuthCallback completes the consent flow and stores the Google token.
func (h *SyncHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		respondWithError(w, http.StatusBadRequest, "Google sign-in was cancelled", "", nil)
		return
	}

	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}

	nonce := ""
	if cookie, err := r.Cookie("oauth_nonce"); err == nil {
		nonce = cookie.Value
	}

	account, err := h.auth.Exchange(r.Context(), r.URL.Query().Get("code"), nonce)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Google sign-in failed", "OAuth exchange failed", err)
		return
	}

	clearTempCookie(w, r, "oauth_state")
	clearTempCookie(w, r, "oauth_nonce")

	log.Printf("Google account connected: %s", account.Email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Status reports the connection and sync state.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := syncStatusResponse{
		Configured: h.auth.Configured(),
		Connected:  h.auth.Connected(),
		Backend:    h.engine.BackendName(),
		Syncing:    h.engine.Syncing(),
	}
	if email, ok := h.auth.Account(); ok {
		resp.Account = email
	}
	if last, ok := h.engine.LastSyncedAt(); ok {
		resp.LastSyncedAt = last
	}
	if h.sheets != nil {
		if id, ok := h.sheets.SpreadsheetID(); ok {
			resp.SpreadsheetID = id
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// Push uploads the local data to the cloud, overwriting the remote copy.
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Push(r.Context()); err != nil {
		h.syncError(w, "Failed to upload to cloud", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pull replaces the local data with the cloud copy. Nothing changes when the
// remote store is empty.
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	found, err := h.engine.Pull(r.Context())
	if err != nil {
		h.syncError(w, "Failed to download from cloud", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"found": found})
}

// Run performs a full two-way sync: merge, then write both sides.
func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Sync(r.Context()); err != nil {
		h.syncError(w, "Sync failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Disconnect revokes the Google token and forgets the account. Local data
// stays put.
func (h *SyncHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Disconnect(r.Context()); err != nil {
		log.Printf("Token revocation failed: %v", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSpreadsheets returns the account's spreadsheets, most recently
// modified first. Sheets backend only.
func (h *SyncHandler) ListSpreadsheets(w http.ResponseWriter, r *http.Request) {
	if h.sheets == nil {
		respondWithError(w, http.StatusBadRequest, "Sheets backend is not active", "", nil)
		return
	}
	sheets, err := h.sheets.ListSpreadsheets(r.Context())
	if err != nil {
		h.syncError(w, "Failed to list spreadsheets", err)
		return
	}
	if sheets == nil {
		sheets = []sync.SpreadsheetInfo{}
	}
	respondJSON(w, http.StatusOK, sheets)
}

type spreadsheetRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateSpreadsheet makes a fresh spreadsheet with the Meals and Family
// sheets and selects it for syncing.
func (h *SyncHandler) CreateSpreadsheet(w http.ResponseWriter, r *http.Request) {
	if h.sheets == nil {
		respondWithError(w, http.StatusBadRequest, "Sheets backend is not active", "", nil)
		return
	}
	var req spreadsheetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.sheets.CreateSpreadsheet(r.Context(), req.Name)
	if err != nil {
		h.syncError(w, "Failed to create spreadsheet", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// SelectSpreadsheet picks an existing spreadsheet to sync with.
func (h *SyncHandler) SelectSpreadsheet(w http.ResponseWriter, r *http.Request) {
	if h.sheets == nil {
		respondWithError(w, http.StatusBadRequest, "Sheets backend is not active", "", nil)
		return
	}
	var req spreadsheetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID == "" {
		respondWithError(w, http.StatusBadRequest, "Spreadsheet id is required", "", nil)
		return
	}
	if err := h.sheets.SetSpreadsheetID(req.ID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save spreadsheet selection", "Failed to save spreadsheet selection", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SyncHandler) syncError(w http.ResponseWriter, userMsg string, err error) {
	switch {
	case errors.Is(err, sync.ErrSyncInProgress):
		respondWithError(w, http.StatusConflict, "A sync is already running", "", nil)
	case errors.Is(err, googleauth.ErrTokenExpired):
		respondWithError(w, http.StatusUnauthorized, "Google session expired, reconnect to continue", "", nil)
	case errors.Is(err, googleauth.ErrNotConnected), errors.Is(err, googleauth.ErrNotConfigured):
		respondWithError(w, http.StatusBadRequest, "Google account is not connected", "", nil)
	case errors.Is(err, sync.ErrNoSpreadsheet):
		respondWithError(w, http.StatusBadRequest, "No spreadsheet selected", "", nil)
	default:
		respondWithError(w, http.StatusBadGateway, userMsg, userMsg, err)
	}
}

func setTempCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
	})
}

func clearTempCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
