package models

import (
	"errors"
	"strings"
	"time"
)

// TimeFormat is the timestamp layout used everywhere data is persisted or
// exchanged with a remote store (RFC 3339 with millisecond precision).
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// DateFormat is the calendar-date layout for Meal.Date.
const DateFormat = "2006-01-02"

// RatingValue is the tri-state rating a family member can hold for a meal.
type RatingValue int

const (
	// Unrated means the member has no opinion recorded; applying it removes
	// any existing rating entry.
	Unrated RatingValue = iota
	Liked
	Disliked
)

// ParseRatingValue converts the API/wire representation of a rating.
func ParseRatingValue(s string) (RatingValue, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "liked", "like":
		return Liked, nil
	case "disliked", "dislike":
		return Disliked, nil
	case "unrated", "none", "":
		return Unrated, nil
	}
	return Unrated, errors.New("invalid rating value: " + s)
}

func (v RatingValue) String() string {
	switch v {
	case Liked:
		return "liked"
	case Disliked:
		return "disliked"
	default:
		return "unrated"
	}
}

// MealRating records one family member's opinion of a meal. Members with no
// opinion simply have no entry, so only the liked/disliked states persist.
type MealRating struct {
	MemberID string `json:"memberId"`
	Liked    bool   `json:"liked"`
}

// Meal is a single logged meal. Timestamps are stored as formatted strings so
// they survive the CSV and spreadsheet round-trip byte for byte.
type Meal struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Date        string       `json:"date"`
	Ratings     []MealRating `json:"ratings"`
	Ingredients []string     `json:"ingredients,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
	DeletedAt   string       `json:"deletedAt,omitempty"`
}

// Deleted reports whether the meal is a soft-delete tombstone.
func (m *Meal) Deleted() bool {
	return m.DeletedAt != ""
}

// ModifiedAt returns the meal's last-write timestamp for merge comparison.
// An unparseable timestamp yields the zero time, which always loses.
func (m *Meal) ModifiedAt() time.Time {
	return parseTimestamp(m.UpdatedAt, m.CreatedAt)
}

// Validate checks the invariants required before a meal may be stored.
func (m *Meal) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("meal name is required")
	}
	if _, err := time.Parse(DateFormat, m.Date); err != nil {
		return errors.New("meal date must be formatted as YYYY-MM-DD")
	}
	return nil
}

// Rating returns the stored rating for a member, or Unrated when absent.
func (m *Meal) Rating(memberID string) RatingValue {
	for _, r := range m.Ratings {
		if r.MemberID == memberID {
			if r.Liked {
				return Liked
			}
			return Disliked
		}
	}
	return Unrated
}

// Now formats the current instant in the canonical timestamp layout.
func Now() string {
	return time.Now().UTC().Format(TimeFormat)
}

// Today returns the current local calendar date.
func Today() string {
	return time.Now().Format(DateFormat)
}

func parseTimestamp(value, fallback string) time.Time {
	if value == "" {
		value = fallback
	}
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
