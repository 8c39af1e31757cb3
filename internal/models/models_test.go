package models

import (
	"testing"
	"time"
)

func TestMealValidate(t *testing.T) {
	tests := []struct {
		name    string
		meal    Meal
		wantErr bool
	}{
		{
			name: "valid meal",
			meal: Meal{
				ID:   "meal-1",
				Name: "Spaghetti",
				Date: "2024-06-01",
			},
			wantErr: false,
		},
		{
			name: "missing name",
			meal: Meal{
				ID:   "meal-1",
				Name: "   ",
				Date: "2024-06-01",
			},
			wantErr: true,
		},
		{
			name: "malformed date",
			meal: Meal{
				ID:   "meal-1",
				Name: "Spaghetti",
				Date: "June 1st",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meal.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Meal.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMealRatingLookup(t *testing.T) {
	meal := Meal{
		ID:   "meal-1",
		Name: "Zupa",
		Date: "2024-06-01",
		Ratings: []MealRating{
			{MemberID: "member-1", Liked: true},
			{MemberID: "member-2", Liked: false},
		},
	}

	tests := []struct {
		name     string
		memberID string
		want     RatingValue
	}{
		{name: "liked member", memberID: "member-1", want: Liked},
		{name: "disliked member", memberID: "member-2", want: Disliked},
		{name: "unknown member", memberID: "member-3", want: Unrated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := meal.Rating(tt.memberID); got != tt.want {
				t.Errorf("Rating(%q) = %v, want %v", tt.memberID, got, tt.want)
			}
		})
	}
}

func TestParseRatingValue(t *testing.T) {
	tests := []struct {
		input   string
		want    RatingValue
		wantErr bool
	}{
		{input: "liked", want: Liked},
		{input: "Disliked", want: Disliked},
		{input: "unrated", want: Unrated},
		{input: "", want: Unrated},
		{input: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRatingValue(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRatingValue(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseRatingValue(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFamilyMemberModifiedAt(t *testing.T) {
	tests := []struct {
		name   string
		member FamilyMember
		want   time.Time
	}{
		{
			name: "uses updatedAt when present",
			member: FamilyMember{
				CreatedAt: "2024-01-01T00:00:00.000Z",
				UpdatedAt: "2024-02-01T00:00:00.000Z",
			},
			want: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "falls back to createdAt",
			member: FamilyMember{
				CreatedAt: "2024-01-01T00:00:00.000Z",
			},
			want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "unparseable yields zero time",
			member: FamilyMember{CreatedAt: "yesterday"},
			want:   time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.member.ModifiedAt(); !got.Equal(tt.want) {
				t.Errorf("ModifiedAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNowRoundTrips(t *testing.T) {
	now := Now()
	parsed, err := time.Parse(time.RFC3339, now)
	if err != nil {
		t.Fatalf("Now() produced unparseable timestamp %q: %v", now, err)
	}
	if parsed.Format(TimeFormat) != now {
		t.Errorf("timestamp %q does not round-trip through TimeFormat", now)
	}
}
