package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mymeals/internal/models"
	"mymeals/internal/notify"
	"mymeals/internal/repository"
	"mymeals/internal/store"
)

type testApp struct {
	meals  *repository.MealRepository
	family *repository.FamilyRepository
	mux    *http.ServeMux
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	s := store.NewMemory()
	events := notify.NewBroadcaster()
	meals, err := repository.NewMealRepository(s, events)
	if err != nil {
		t.Fatalf("NewMealRepository: %v", err)
	}
	family, err := repository.NewFamilyRepository(s, events)
	if err != nil {
		t.Fatalf("NewFamilyRepository: %v", err)
	}

	mealHandler := NewMealHandler(meals)
	familyHandler := NewFamilyHandler(family)
	autocompleteHandler := NewAutocompleteHandler(meals)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/meals", mealHandler.List)
	mux.HandleFunc("POST /api/meals", mealHandler.Create)
	mux.HandleFunc("GET /api/meals/grouped", mealHandler.Grouped)
	mux.HandleFunc("GET /api/meals/today", mealHandler.Today)
	mux.HandleFunc("GET /api/meals/suggestions", mealHandler.Suggestions)
	mux.HandleFunc("GET /api/meals/{id}", mealHandler.Get)
	mux.HandleFunc("DELETE /api/meals/{id}", mealHandler.Delete)
	mux.HandleFunc("PUT /api/meals/{id}/ratings/{memberId}", mealHandler.Rate)
	mux.HandleFunc("GET /api/family", familyHandler.List)
	mux.HandleFunc("POST /api/family", familyHandler.Create)
	mux.HandleFunc("GET /api/family/{id}", familyHandler.Get)
	mux.HandleFunc("PUT /api/family/{id}", familyHandler.Update)
	mux.HandleFunc("DELETE /api/family/{id}", familyHandler.Delete)
	mux.HandleFunc("POST /api/autocomplete/{clientId}/input", autocompleteHandler.Input)
	mux.HandleFunc("POST /api/autocomplete/{clientId}/key", autocompleteHandler.Key)
	mux.HandleFunc("POST /api/autocomplete/{clientId}/hover", autocompleteHandler.Hover)
	mux.HandleFunc("POST /api/autocomplete/{clientId}/focus", autocompleteHandler.Focus)
	mux.HandleFunc("POST /api/autocomplete/{clientId}/blur", autocompleteHandler.Blur)
	mux.HandleFunc("POST /api/autocomplete/{clientId}/select", autocompleteHandler.Select)
	mux.HandleFunc("DELETE /api/autocomplete/{clientId}", autocompleteHandler.Reset)

	return &testApp{meals: meals, family: family, mux: mux}
}

func (a *testApp) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	a.mux.ServeHTTP(rr, req)
	return rr
}

func TestCreateMeal(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
	}{
		{
			name:       "valid meal",
			body:       map[string]interface{}{"name": "Spaghetti", "date": "2026-08-20"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing name",
			body:       map[string]interface{}{"date": "2026-08-20"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad date",
			body:       map[string]interface{}{"name": "Soup", "date": "20/08/2026"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			rr := app.request(t, "POST", "/api/meals", tt.body)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantStatus == http.StatusCreated {
				var meal models.Meal
				if err := json.Unmarshal(rr.Body.Bytes(), &meal); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if meal.ID == "" || meal.Name != "Spaghetti" {
					t.Errorf("unexpected meal in response: %+v", meal)
				}
			}
		})
	}
}

func TestListMealsNewestFirst(t *testing.T) {
	app := newTestApp(t)
	app.meals.AddMeal("First", "2026-08-18", "", nil)
	app.meals.AddMeal("Second", "2026-08-19", "", nil)

	rr := app.request(t, "GET", "/api/meals", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var meals []models.Meal
	if err := json.Unmarshal(rr.Body.Bytes(), &meals); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(meals) != 2 || meals[0].Name != "Second" {
		t.Errorf("unexpected order: %+v", meals)
	}
}

func TestListMealsByDate(t *testing.T) {
	app := newTestApp(t)
	app.meals.AddMeal("Pancakes", "2026-08-18", "", nil)
	app.meals.AddMeal("Tacos", "2026-08-19", "", nil)

	rr := app.request(t, "GET", "/api/meals?date=2026-08-18", nil)
	var meals []models.Meal
	if err := json.Unmarshal(rr.Body.Bytes(), &meals); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(meals) != 1 || meals[0].Name != "Pancakes" {
		t.Errorf("unexpected meals: %+v", meals)
	}
}

func TestDeleteMeal(t *testing.T) {
	app := newTestApp(t)
	meal, _ := app.meals.AddMeal("Curry", "2026-08-19", "", nil)

	rr := app.request(t, "DELETE", "/api/meals/"+meal.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}

	rr = app.request(t, "GET", "/api/meals/"+meal.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("deleted meal still served, status = %d", rr.Code)
	}

	rr = app.request(t, "DELETE", "/api/meals/"+meal.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d, want 404", rr.Code)
	}
}

func TestRateMeal(t *testing.T) {
	app := newTestApp(t)
	meal, _ := app.meals.AddMeal("Pizza", "2026-08-19", "", nil)
	member, _ := app.family.AddMember("Ola", "🦊")

	rr := app.request(t, "PUT", "/api/meals/"+meal.ID+"/ratings/"+member.ID, map[string]string{"rating": "liked"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rr.Code, rr.Body.String())
	}

	var updated models.Meal
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Rating(member.ID) != models.Liked {
		t.Errorf("rating = %v, want liked", updated.Rating(member.ID))
	}

	// Unrated removes the entry.
	rr = app.request(t, "PUT", "/api/meals/"+meal.ID+"/ratings/"+member.ID, map[string]string{"rating": "unrated"})
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(updated.Ratings) != 0 {
		t.Errorf("ratings = %+v, want empty", updated.Ratings)
	}
}

func TestRateMealErrors(t *testing.T) {
	app := newTestApp(t)
	meal, _ := app.meals.AddMeal("Pizza", "2026-08-19", "", nil)

	tests := []struct {
		name       string
		path       string
		rating     string
		wantStatus int
	}{
		{"unknown meal", "/api/meals/nope/ratings/m1", "liked", http.StatusNotFound},
		{"bad rating value", "/api/meals/" + meal.ID + "/ratings/m1", "amazing", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := app.request(t, "PUT", tt.path, map[string]string{"rating": tt.rating})
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestMealSuggestions(t *testing.T) {
	app := newTestApp(t)
	app.meals.AddMeal("Spaghetti", "2026-08-18", "", nil)
	app.meals.AddMeal("Schabowy", "2026-08-19", "", nil)
	app.meals.AddMeal("Tacos", "2026-08-19", "", nil)

	// Substring matching is case-insensitive, so "s" also matches Tacos.
	rr := app.request(t, "GET", "/api/meals/suggestions?q=s", nil)
	var got []string
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("suggestions = %v, want every name containing an s", got)
	}

	// An exact match is excluded from its own suggestions.
	rr = app.request(t, "GET", "/api/meals/suggestions?q=Tacos", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("suggestions for exact name = %v, want none", got)
	}

	// No query text means no suggestions, but still a JSON array.
	rr = app.request(t, "GET", "/api/meals/suggestions", nil)
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("empty query body = %q, want empty array", body)
	}
}

func TestGroupedMeals(t *testing.T) {
	app := newTestApp(t)
	app.meals.AddMeal("Pancakes", "2026-08-18", "", nil)
	app.meals.AddMeal("Tacos", "2026-08-19", "", nil)
	app.meals.AddMeal("Soup", "2026-08-19", "", nil)

	rr := app.request(t, "GET", "/api/meals/grouped", nil)
	var groups []repository.DateGroup
	if err := json.Unmarshal(rr.Body.Bytes(), &groups); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(groups) != 2 || groups[0].Date != "2026-08-19" || len(groups[0].Meals) != 2 {
		t.Errorf("unexpected groups: %+v", groups)
	}
}
