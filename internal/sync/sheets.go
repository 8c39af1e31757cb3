package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"mymeals/internal/googleauth"
	"mymeals/internal/store"
	"mymeals/internal/tabular"
)

// Sheet titles inside the connected spreadsheet.
const (
	MealsSheetName  = "Meals"
	FamilySheetName = "Family"
)

var ErrNoSpreadsheet = errors.New("no spreadsheet selected")

// SpreadsheetInfo describes one spreadsheet available to the account.
type SpreadsheetInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SheetsBackend stores each collection as a sheet of a Google Sheets
// spreadsheet. The selected spreadsheet ID persists in the store.
type SheetsBackend struct {
	auth  *googleauth.Service
	store store.Store

	// Overridable in tests.
	apiURL   string
	driveURL string
}

func NewSheetsBackend(auth *googleauth.Service, s store.Store) *SheetsBackend {
	return &SheetsBackend{
		auth:     auth,
		store:    s,
		apiURL:   "https://sheets.googleapis.com/v4",
		driveURL: "https://www.googleapis.com/drive/v3",
	}
}

func (b *SheetsBackend) Name() string { return "sheets" }

// SpreadsheetID returns the selected spreadsheet, if any.
func (b *SheetsBackend) SpreadsheetID() (string, bool) {
	return b.store.LoadValue(store.SpreadsheetKey)
}

// SetSpreadsheetID selects the spreadsheet to sync with; empty clears the
// selection.
func (b *SheetsBackend) SetSpreadsheetID(id string) error {
	if id == "" {
		return b.store.DeleteValue(store.SpreadsheetKey)
	}
	return b.store.SaveValue(store.SpreadsheetKey, id)
}

// Fetch reads both sheets. found is false when neither sheet holds data,
// which covers brand-new and never-synced spreadsheets.
func (b *SheetsBackend) Fetch(ctx context.Context) (Snapshot, bool, error) {
	id, ok := b.SpreadsheetID()
	if !ok {
		return Snapshot{}, false, ErrNoSpreadsheet
	}

	mealRows, err := b.readSheet(ctx, id, MealsSheetName)
	if err != nil {
		return Snapshot{}, false, err
	}
	familyRows, err := b.readSheet(ctx, id, FamilySheetName)
	if err != nil {
		return Snapshot{}, false, err
	}
	if len(mealRows) == 0 && len(familyRows) == 0 {
		return Snapshot{}, false, nil
	}

	return Snapshot{
		Meals:   tabular.RowsToMeals(mealRows),
		Members: tabular.RowsToMembers(familyRows),
	}, true, nil
}

// Store replaces both sheets' contents, creating missing sheets first.
func (b *SheetsBackend) Store(ctx context.Context, snapshot Snapshot) error {
	id, ok := b.SpreadsheetID()
	if !ok {
		return ErrNoSpreadsheet
	}

	if err := b.writeSheet(ctx, id, MealsSheetName, tabular.MealsToRows(snapshot.Meals)); err != nil {
		return err
	}
	return b.writeSheet(ctx, id, FamilySheetName, tabular.MembersToRows(snapshot.Members))
}

// ListSpreadsheets returns the account's spreadsheets, most recently
// modified first.
func (b *SheetsBackend) ListSpreadsheets(ctx context.Context) ([]SpreadsheetInfo, error) {
	query := url.Values{
		"q":       {"mimeType='application/vnd.google-apps.spreadsheet' and trashed=false"},
		"fields":  {"files(id,name)"},
		"orderBy": {"modifiedTime desc"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.driveURL+"/files?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.auth.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spreadsheet list returned %s", resp.Status)
	}

	var payload struct {
		Files []SpreadsheetInfo `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse spreadsheet list: %w", err)
	}
	return payload.Files, nil
}

// CreateSpreadsheet makes a new spreadsheet with both sheets already in
// place and selects it.
func (b *SheetsBackend) CreateSpreadsheet(ctx context.Context, name string) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"properties": map[string]string{"title": name},
		"sheets": []map[string]interface{}{
			{"properties": map[string]string{"title": MealsSheetName}},
			{"properties": map[string]string{"title": FamilySheetName}},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL+"/spreadsheets", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.auth.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spreadsheet create returned %s", resp.Status)
	}

	var payload struct {
		SpreadsheetID string `json:"spreadsheetId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse create response: %w", err)
	}
	if err := b.SetSpreadsheetID(payload.SpreadsheetID); err != nil {
		return "", err
	}
	return payload.SpreadsheetID, nil
}

// readSheet fetches the sheet's populated cells. A 400 means the sheet
// does not exist yet and reads as empty.
func (b *SheetsBackend) readSheet(ctx context.Context, spreadsheetID, sheetName string) ([][]string, error) {
	rangeRef := url.PathEscape(sheetName + "!A:Z")
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s", b.apiURL, spreadsheetID, rangeRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.auth.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet read of %s returned %s", sheetName, resp.Status)
	}

	var payload struct {
		Values [][]string `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse sheet values: %w", err)
	}
	return payload.Values, nil
}

// writeSheet clears the sheet and writes the rows starting at A1.
func (b *SheetsBackend) writeSheet(ctx context.Context, spreadsheetID, sheetName string, rows [][]string) error {
	if err := b.ensureSheet(ctx, spreadsheetID, sheetName); err != nil {
		return err
	}

	clearRef := url.PathEscape(sheetName + "!A:Z")
	clearEndpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s:clear", b.apiURL, spreadsheetID, clearRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, clearEndpoint, nil)
	if err != nil {
		return err
	}
	resp, err := b.auth.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if len(rows) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string]interface{}{"values": rows})
	if err != nil {
		return err
	}
	writeRef := url.PathEscape(sheetName + "!A1")
	writeEndpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s?valueInputOption=RAW", b.apiURL, spreadsheetID, writeRef)
	req, err = http.NewRequestWithContext(ctx, http.MethodPut, writeEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = b.auth.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheet write of %s returned %s", sheetName, resp.Status)
	}
	return nil
}

// ensureSheet adds the sheet to the spreadsheet when it is missing.
func (b *SheetsBackend) ensureSheet(ctx context.Context, spreadsheetID, sheetName string) error {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s?fields=sheets.properties.title", b.apiURL, spreadsheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := b.auth.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("spreadsheet %s not found", spreadsheetID)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("spreadsheet metadata returned %s", resp.Status)
	}

	var payload struct {
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to parse spreadsheet metadata: %w", err)
	}
	for _, sheet := range payload.Sheets {
		if sheet.Properties.Title == sheetName {
			return nil
		}
	}

	body, err := json.Marshal(map[string]interface{}{
		"requests": []map[string]interface{}{
			{"addSheet": map[string]interface{}{
				"properties": map[string]string{"title": sheetName},
			}},
		},
	})
	if err != nil {
		return err
	}
	addEndpoint := fmt.Sprintf("%s/spreadsheets/%s:batchUpdate", b.apiURL, spreadsheetID)
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, addEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = b.auth.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to create sheet %s: %s", sheetName, resp.Status)
	}
	return nil
}
