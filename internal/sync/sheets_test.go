package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"mymeals/internal/googleauth"
	"mymeals/internal/models"
	"mymeals/internal/store"
)

// fakeSheets emulates the Sheets value endpoints plus the Drive listing
// used by the spreadsheet picker.
type fakeSheets struct {
	sheets map[string][][]string // sheet title -> rows
}

func (f *fakeSheets) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v4/spreadsheets/{id}", func(w http.ResponseWriter, r *http.Request) {
		var titles []map[string]interface{}
		for title := range f.sheets {
			titles = append(titles, map[string]interface{}{
				"properties": map[string]string{"title": title},
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"sheets": titles})
	})

	// The batchUpdate suffix is part of the final path segment, so it
	// cannot appear in the route pattern.
	mux.HandleFunc("POST /v4/spreadsheets/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.PathValue("id"), ":batchUpdate") {
			http.NotFound(w, r)
			return
		}
		var payload struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, req := range payload.Requests {
			f.sheets[req.AddSheet.Properties.Title] = nil
		}
		w.Write([]byte("{}"))
	})

	mux.HandleFunc("GET /v4/spreadsheets/{id}/values/{range}", func(w http.ResponseWriter, r *http.Request) {
		title := sheetTitle(r.PathValue("range"))
		rows, ok := f.sheets[title]
		if !ok {
			http.Error(w, "no such sheet", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"values": rows})
	})

	mux.HandleFunc("POST /v4/spreadsheets/{id}/values/{range}", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.PathValue("range"), ":clear") {
			http.NotFound(w, r)
			return
		}
		title := sheetTitle(strings.TrimSuffix(r.PathValue("range"), ":clear"))
		if _, ok := f.sheets[title]; ok {
			f.sheets[title] = nil
		}
		w.Write([]byte("{}"))
	})

	mux.HandleFunc("PUT /v4/spreadsheets/{id}/values/{range}", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Values [][]string `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.sheets[sheetTitle(r.PathValue("range"))] = payload.Values
		w.Write([]byte("{}"))
	})

	mux.HandleFunc("GET /drive/files", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"files": []map[string]string{
				{"id": "sheet-1", "name": "Family meals"},
				{"id": "sheet-2", "name": "Old plan"},
			},
		})
	})

	mux.HandleFunc("POST /v4/spreadsheets", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"spreadsheetId": "created-id"})
	})

	return mux
}

// sheetTitle strips the "!A:Z" style suffix from an escaped range
// reference.
func sheetTitle(rangeRef string) string {
	decoded, err := url.PathUnescape(rangeRef)
	if err != nil {
		decoded = rangeRef
	}
	if at := strings.Index(decoded, "!"); at >= 0 {
		return decoded[:at]
	}
	return decoded
}

func newTestSheets(t *testing.T) (*SheetsBackend, *fakeSheets, *store.Memory) {
	t.Helper()
	sheets := &fakeSheets{sheets: make(map[string][][]string)}
	server := httptest.NewServer(sheets.handler())
	t.Cleanup(server.Close)

	mem := store.NewMemory()
	mem.SaveValue(store.AccessTokenKey, "token123")
	mem.SaveValue(store.SpreadsheetKey, "spreadsheet-1")
	auth := googleauth.NewService(googleauth.Options{ClientID: "id", ClientSecret: "secret"}, mem)

	backend := NewSheetsBackend(auth, mem)
	backend.apiURL = server.URL + "/v4"
	backend.driveURL = server.URL + "/drive"
	return backend, sheets, mem
}

func TestSheetsFetchWithoutSpreadsheet(t *testing.T) {
	backend, _, mem := newTestSheets(t)
	mem.DeleteValue(store.SpreadsheetKey)

	if _, _, err := backend.Fetch(context.Background()); !errors.Is(err, ErrNoSpreadsheet) {
		t.Errorf("Fetch() error = %v, want ErrNoSpreadsheet", err)
	}
	if err := backend.Store(context.Background(), Snapshot{}); !errors.Is(err, ErrNoSpreadsheet) {
		t.Errorf("Store() error = %v, want ErrNoSpreadsheet", err)
	}
}

func TestSheetsFetchMissingSheetsReadAsEmpty(t *testing.T) {
	backend, _, _ := newTestSheets(t)

	// Neither sheet exists; the 400 responses read as no data.
	_, found, err := backend.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if found {
		t.Error("Fetch() found = true for a spreadsheet with no data")
	}
}

func TestSheetsStoreThenFetch(t *testing.T) {
	backend, sheets, _ := newTestSheets(t)

	snapshot := Snapshot{
		Meals: []models.Meal{{
			ID: "m1", Name: "Stew", Date: "2026-03-01",
			CreatedAt: "2026-03-01T10:00:00.000Z", UpdatedAt: "2026-03-01T10:00:00.000Z",
			DeletedAt: "2026-03-02T10:00:00.000Z",
		}},
		Members: []models.FamilyMember{{
			ID: "f1", Name: "Ania",
			CreatedAt: "2026-03-01T10:00:00.000Z", UpdatedAt: "2026-03-01T10:00:00.000Z",
		}},
	}

	if err := backend.Store(context.Background(), snapshot); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	// Store creates missing sheets before writing.
	if _, ok := sheets.sheets[MealsSheetName]; !ok {
		t.Fatalf("meals sheet not created, sheets = %v", sheets.sheets)
	}

	got, found, err := backend.Fetch(context.Background())
	if err != nil || !found {
		t.Fatalf("Fetch() = %v, %v, want found", found, err)
	}
	if len(got.Meals) != 1 || got.Meals[0].DeletedAt != snapshot.Meals[0].DeletedAt {
		t.Errorf("fetched meals = %+v, want the stored tombstone", got.Meals)
	}
	if len(got.Members) != 1 || got.Members[0].Name != "Ania" {
		t.Errorf("fetched members = %+v, want the stored member", got.Members)
	}
}

func TestListSpreadsheets(t *testing.T) {
	backend, _, _ := newTestSheets(t)

	got, err := backend.ListSpreadsheets(context.Background())
	if err != nil {
		t.Fatalf("ListSpreadsheets() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "sheet-1" || got[0].Name != "Family meals" {
		t.Errorf("ListSpreadsheets() = %+v, want both spreadsheets", got)
	}
}

func TestCreateSpreadsheetSelectsIt(t *testing.T) {
	backend, _, _ := newTestSheets(t)

	id, err := backend.CreateSpreadsheet(context.Background(), "New plan")
	if err != nil {
		t.Fatalf("CreateSpreadsheet() error = %v", err)
	}
	if id != "created-id" {
		t.Errorf("CreateSpreadsheet() = %q, want created-id", id)
	}
	if got, ok := backend.SpreadsheetID(); !ok || got != "created-id" {
		t.Errorf("SpreadsheetID() = %q, %v, want the new spreadsheet selected", got, ok)
	}
}
