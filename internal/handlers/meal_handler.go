package handlers

import (
	"errors"
	"net/http"

	"mymeals/internal/autocomplete"
	"mymeals/internal/models"
	"mymeals/internal/repository"
)

// MealHandler serves the meal log API.
type MealHandler struct {
	meals *repository.MealRepository
}

func NewMealHandler(meals *repository.MealRepository) *MealHandler {
	return &MealHandler{meals: meals}
}

type createMealRequest struct {
	Name        string   `json:"name"`
	Date        string   `json:"date"`
	Notes       string   `json:"notes"`
	Ingredients []string `json:"ingredients"`
}

type rateMealRequest struct {
	Rating string `json:"rating"`
}

// List returns all live meals, newest first. ?date=YYYY-MM-DD restricts the
// list to a single day.
func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	if date := r.URL.Query().Get("date"); date != "" {
		respondJSON(w, http.StatusOK, h.meals.MealsByDate(date))
		return
	}
	respondJSON(w, http.StatusOK, h.meals.Meals())
}

// Create logs a new meal.
func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMealRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	meal, err := h.meals.AddMeal(req.Name, req.Date, req.Notes, req.Ingredients)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "Failed to add meal", err)
		return
	}
	respondJSON(w, http.StatusCreated, meal)
}

// Get returns a single live meal by ID.
func (h *MealHandler) Get(w http.ResponseWriter, r *http.Request) {
	meal, err := h.meals.GetMeal(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Meal not found", "", nil)
		return
	}
	respondJSON(w, http.StatusOK, meal)
}

// Delete tombstones a meal so the deletion propagates on the next sync.
func (h *MealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.meals.DeleteMeal(r.PathValue("id")); err != nil {
		if errors.Is(err, repository.ErrMealNotFound) {
			respondWithError(w, http.StatusNotFound, "Meal not found", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to delete meal", "Failed to delete meal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Grouped returns meals bucketed by date, most recent day first.
func (h *MealHandler) Grouped(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.meals.GroupedByDate())
}

// Today returns the meals logged for the current date.
func (h *MealHandler) Today(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.meals.TodaysMeals())
}

// Rate sets one family member's rating on a meal. "unrated" removes the
// member's entry.
func (h *MealHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var req rateMealRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	value, err := models.ParseRatingValue(req.Rating)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	meal, err := h.meals.UpdateRating(r.PathValue("id"), r.PathValue("memberId"), value)
	if err != nil {
		if errors.Is(err, repository.ErrMealNotFound) {
			respondWithError(w, http.StatusNotFound, "Meal not found", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to update rating", "Failed to update rating", err)
		return
	}
	respondJSON(w, http.StatusOK, meal)
}

// Suggestions returns meal name completions for ?q=, filtered the same way
// the autocomplete widget filters as the user types.
func (h *MealHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	matches := autocomplete.Filter(r.URL.Query().Get("q"), h.meals.Names())
	if matches == nil {
		matches = []string{}
	}
	respondJSON(w, http.StatusOK, matches)
}
