package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"mymeals/internal/models"
)

func TestCreateFamilyMember(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{"valid member", map[string]string{"name": "Ola", "avatar": "🦊"}, http.StatusCreated},
		{"whitespace name", map[string]string{"name": "   "}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			rr := app.request(t, "POST", "/api/family", tt.body)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
		})
	}
}

func TestUpdateFamilyMember(t *testing.T) {
	app := newTestApp(t)
	member, _ := app.family.AddMember("Ola", "🦊")

	rr := app.request(t, "PUT", "/api/family/"+member.ID, map[string]string{"name": "Aleksandra"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rr.Code, rr.Body.String())
	}

	var updated models.FamilyMember
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Name != "Aleksandra" {
		t.Errorf("name = %q, want Aleksandra", updated.Name)
	}
	// Avatar untouched when omitted.
	if updated.Avatar != "🦊" {
		t.Errorf("avatar = %q, want kept", updated.Avatar)
	}
}

func TestDeleteFamilyMemberKeepsRatings(t *testing.T) {
	app := newTestApp(t)
	member, _ := app.family.AddMember("Ola", "")
	meal, _ := app.meals.AddMeal("Pizza", "2026-08-19", "", nil)
	app.meals.UpdateRating(meal.ID, member.ID, models.Liked)

	rr := app.request(t, "DELETE", "/api/family/"+member.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}

	rr = app.request(t, "GET", "/api/family/"+member.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("deleted member still served, status = %d", rr.Code)
	}

	got, err := app.meals.GetMeal(meal.ID)
	if err != nil {
		t.Fatalf("GetMeal: %v", err)
	}
	if got.Rating(member.ID) != models.Liked {
		t.Errorf("rating dropped after member deletion")
	}
}

func TestGetFamilyMemberNotFound(t *testing.T) {
	app := newTestApp(t)
	rr := app.request(t, "GET", "/api/family/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}
