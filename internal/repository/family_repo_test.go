package repository

import (
	"errors"
	"testing"

	"mymeals/internal/models"
)

func TestAddMember(t *testing.T) {
	_, family, _ := newTestRepos(t)

	member, err := family.AddMember(" Ania ", "🦊")
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	if member.Name != "Ania" || member.Avatar != "🦊" {
		t.Errorf("member = %+v, want trimmed name and avatar", member)
	}

	if _, err := family.AddMember("  ", "🐻"); err == nil {
		t.Error("AddMember() with blank name expected error, got nil")
	}
}

func TestUpdateMember(t *testing.T) {
	_, family, _ := newTestRepos(t)

	member, err := family.AddMember("Ania", "🦊")
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	tests := []struct {
		name       string
		newName    string
		newAvatar  string
		wantName   string
		wantAvatar string
	}{
		{"rename only", "Anna", "", "Anna", "🦊"},
		{"avatar only", "", "🐱", "Anna", "🐱"},
		{"whitespace name keeps current", "   ", "🐻", "Anna", "🐻"},
		{"both", "Ania", "🦊", "Ania", "🦊"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := family.UpdateMember(member.ID, tt.newName, tt.newAvatar)
			if err != nil {
				t.Fatalf("UpdateMember() error = %v", err)
			}
			if got.Name != tt.wantName || got.Avatar != tt.wantAvatar {
				t.Errorf("UpdateMember() = %s/%s, want %s/%s", got.Name, got.Avatar, tt.wantName, tt.wantAvatar)
			}
		})
	}

	if _, err := family.UpdateMember("missing", "X", ""); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("UpdateMember(missing) error = %v, want ErrMemberNotFound", err)
	}
}

func TestDeleteMember(t *testing.T) {
	meals, family, _ := newTestRepos(t)

	member, err := family.AddMember("Ania", "🦊")
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	meal, err := meals.AddMeal("Pierogi", "2026-03-01", "", nil)
	if err != nil {
		t.Fatalf("AddMeal() error = %v", err)
	}
	if _, err := meals.UpdateRating(meal.ID, member.ID, models.Liked); err != nil {
		t.Fatalf("UpdateRating() error = %v", err)
	}

	if err := family.DeleteMember(member.ID); err != nil {
		t.Fatalf("DeleteMember() error = %v", err)
	}
	if len(family.Members()) != 0 {
		t.Error("deleted member still visible in Members()")
	}
	if _, err := family.GetMember(member.ID); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("GetMember() after delete error = %v, want ErrMemberNotFound", err)
	}
	all := family.AllMembers()
	if len(all) != 1 || !all[0].Deleted() {
		t.Errorf("AllMembers() = %+v, want one tombstone", all)
	}

	// The meal keeps its rating even though the member is gone.
	got, err := meals.GetMeal(meal.ID)
	if err != nil {
		t.Fatalf("GetMeal() error = %v", err)
	}
	if got.Rating(member.ID) != models.Liked {
		t.Error("rating removed when member deleted, want it kept")
	}

	if err := family.DeleteMember(member.ID); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("second DeleteMember() error = %v, want ErrMemberNotFound", err)
	}
}
