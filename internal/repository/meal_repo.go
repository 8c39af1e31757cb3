// Package repository holds the in-memory working sets for meals and family
// members, backed by the key-value store. Deleted records stay in the
// collections as tombstones so the sync merge can propagate deletions; the
// read methods filter them out.
package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mymeals/internal/models"
	"mymeals/internal/notify"
	"mymeals/internal/store"
)

var (
	ErrMealNotFound   = errors.New("meal not found")
	ErrMemberNotFound = errors.New("family member not found")
)

// MealRepository handles all meal operations.
type MealRepository struct {
	mu     sync.RWMutex
	store  store.Store
	events *notify.Broadcaster
	meals  []models.Meal
}

// NewMealRepository loads the meal collection from the store.
func NewMealRepository(s store.Store, events *notify.Broadcaster) (*MealRepository, error) {
	meals, err := s.LoadMeals()
	if err != nil {
		return nil, fmt.Errorf("failed to load meals: %w", err)
	}
	return &MealRepository{store: s, events: events, meals: meals}, nil
}

// Reload replaces the working set with the store's current contents. The
// sync engine writes imported data to the store and then publishes an
// imported event; the caller wires that event to Reload.
func (r *MealRepository) Reload() error {
	meals, err := r.store.LoadMeals()
	if err != nil {
		return fmt.Errorf("failed to reload meals: %w", err)
	}
	r.mu.Lock()
	r.meals = meals
	r.mu.Unlock()
	return nil
}

// AddMeal creates a meal for the given date and prepends it to the
// collection so recent meals come first.
func (r *MealRepository) AddMeal(name, date, notes string, ingredients []string) (*models.Meal, error) {
	now := models.Now()
	meal := models.Meal{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Date:        date,
		Notes:       notes,
		Ingredients: ingredients,
		Ratings:     []models.MealRating{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if meal.Date == "" {
		meal.Date = models.Today()
	}
	if err := meal.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.meals = append([]models.Meal{meal}, r.meals...)
	if err := r.persist(); err != nil {
		r.meals = r.meals[1:]
		return nil, err
	}
	return &meal, nil
}

// DeleteMeal tombstones a meal. Deleting an already deleted or unknown meal
// returns ErrMealNotFound.
func (r *MealRepository) DeleteMeal(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.meals {
		if r.meals[i].ID != id || r.meals[i].Deleted() {
			continue
		}
		now := models.Now()
		prev := r.meals[i]
		r.meals[i].DeletedAt = now
		r.meals[i].UpdatedAt = now
		if err := r.persist(); err != nil {
			r.meals[i] = prev
			return err
		}
		return nil
	}
	return ErrMealNotFound
}

// GetMeal retrieves a live meal by ID.
func (r *MealRepository) GetMeal(id string) (*models.Meal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.meals {
		if r.meals[i].ID == id && !r.meals[i].Deleted() {
			meal := r.meals[i]
			return &meal, nil
		}
	}
	return nil, ErrMealNotFound
}

// Meals returns all live meals, newest first.
func (r *MealRepository) Meals() []models.Meal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return liveMeals(r.meals)
}

// AllMeals returns the full collection including tombstones, for sync.
func (r *MealRepository) AllMeals() []models.Meal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meals := make([]models.Meal, len(r.meals))
	copy(meals, r.meals)
	return meals
}

// MealsByDate returns live meals recorded for the given date.
func (r *MealRepository) MealsByDate(date string) []models.Meal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var meals []models.Meal
	for i := range r.meals {
		if r.meals[i].Date == date && !r.meals[i].Deleted() {
			meals = append(meals, r.meals[i])
		}
	}
	return meals
}

// TodaysMeals returns live meals recorded for the current local date.
func (r *MealRepository) TodaysMeals() []models.Meal {
	return r.MealsByDate(models.Today())
}

// DateGroup is one calendar date together with its meals.
type DateGroup struct {
	Date  string        `json:"date"`
	Meals []models.Meal `json:"meals"`
}

// GroupedByDate returns live meals grouped by date, most recent date first.
// Within a group meals keep their collection order.
func (r *MealRepository) GroupedByDate() []DateGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byDate := make(map[string][]models.Meal)
	for i := range r.meals {
		if r.meals[i].Deleted() {
			continue
		}
		byDate[r.meals[i].Date] = append(byDate[r.meals[i].Date], r.meals[i])
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	groups := make([]DateGroup, 0, len(dates))
	for _, date := range dates {
		groups = append(groups, DateGroup{Date: date, Meals: byDate[date]})
	}
	return groups
}

// UpdateRating sets a member's rating on a meal. Liked and Disliked upsert
// the rating entry; Unrated removes it. The meal's updatedAt always moves
// forward, even when the rating is already in the requested state, so the
// change wins a later sync merge.
func (r *MealRepository) UpdateRating(mealID, memberID string, value models.RatingValue) (*models.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.meals {
		if r.meals[i].ID != mealID || r.meals[i].Deleted() {
			continue
		}
		prev := r.meals[i]
		prevRatings := make([]models.MealRating, len(prev.Ratings))
		copy(prevRatings, prev.Ratings)

		// An existing entry is replaced in place so the ratings order is
		// stable; Unrated removes the member's entry.
		ratings := make([]models.MealRating, 0, len(prevRatings)+1)
		replaced := false
		for _, rating := range prevRatings {
			if rating.MemberID != memberID {
				ratings = append(ratings, rating)
				continue
			}
			replaced = true
			if value != models.Unrated {
				ratings = append(ratings, models.MealRating{MemberID: memberID, Liked: value == models.Liked})
			}
		}
		if !replaced && value != models.Unrated {
			ratings = append(ratings, models.MealRating{MemberID: memberID, Liked: value == models.Liked})
		}

		r.meals[i].Ratings = ratings
		r.meals[i].UpdatedAt = models.Now()
		if err := r.persist(); err != nil {
			r.meals[i] = prev
			r.meals[i].Ratings = prevRatings
			return nil, err
		}
		meal := r.meals[i]
		return &meal, nil
	}
	return nil, ErrMealNotFound
}

// Names returns the distinct live meal names in collection order, for
// autocomplete suggestions.
func (r *MealRepository) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for i := range r.meals {
		if r.meals[i].Deleted() || seen[r.meals[i].Name] {
			continue
		}
		seen[r.meals[i].Name] = true
		names = append(names, r.meals[i].Name)
	}
	return names
}

// persist writes the full collection and announces the change. Callers hold
// the write lock.
func (r *MealRepository) persist() error {
	if err := r.store.SaveMeals(r.meals); err != nil {
		return fmt.Errorf("failed to save meals: %w", err)
	}
	if r.events != nil {
		r.events.Publish(notify.Event{Kind: notify.EventMeals})
	}
	return nil
}

func liveMeals(meals []models.Meal) []models.Meal {
	var live []models.Meal
	for i := range meals {
		if !meals[i].Deleted() {
			live = append(live, meals[i])
		}
	}
	return live
}
