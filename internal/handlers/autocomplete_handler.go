package handlers

import (
	"net/http"
	gosync "sync"

	"mymeals/internal/autocomplete"
	"mymeals/internal/repository"
)

// AutocompleteHandler keeps one autocomplete controller per client so the
// meal name field behaves the same across page loads and devices. Clients
// identify themselves with an opaque ID of their choosing.
type AutocompleteHandler struct {
	meals *repository.MealRepository

	mu          gosync.Mutex
	controllers map[string]*autocomplete.Controller
}

func NewAutocompleteHandler(meals *repository.MealRepository) *AutocompleteHandler {
	return &AutocompleteHandler{
		meals:       meals,
		controllers: make(map[string]*autocomplete.Controller),
	}
}

type autocompleteRequest struct {
	Text       string `json:"text,omitempty"`
	Key        string `json:"key,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Index      int    `json:"index,omitempty"`
}

type autocompleteState struct {
	Text        string   `json:"text"`
	Visible     []string `json:"visible"`
	Highlighted int      `json:"highlighted"`
	Selected    string   `json:"selected,omitempty"`
	Handled     bool     `json:"handled"`
}

// Input records a keystroke's resulting text and returns the new suggestion
// state.
func (h *AutocompleteHandler) Input(w http.ResponseWriter, r *http.Request) {
	var req autocompleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c := h.controller(r.PathValue("clientId"))
	c.SetText(req.Text)
	respondJSON(w, http.StatusOK, h.state(c, "", false))
}

// Key applies a keyboard event. Handled reports whether the widget consumed
// the key; an unconsumed key should fall through to the form.
func (h *AutocompleteHandler) Key(w http.ResponseWriter, r *http.Request) {
	var req autocompleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c := h.controller(r.PathValue("clientId"))
	selected, handled := c.HandleKey(req.Key)
	respondJSON(w, http.StatusOK, h.state(c, selected, handled))
}

// Hover moves the highlight to the suggestion under the pointer.
func (h *AutocompleteHandler) Hover(w http.ResponseWriter, r *http.Request) {
	var req autocompleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c := h.controller(r.PathValue("clientId"))
	c.Hover(req.Index)
	respondJSON(w, http.StatusOK, h.state(c, "", false))
}

// Focus opens the suggestion list and refreshes it from the meal log.
func (h *AutocompleteHandler) Focus(w http.ResponseWriter, r *http.Request) {
	c := h.controller(r.PathValue("clientId"))
	c.Focus()
	respondJSON(w, http.StatusOK, h.state(c, "", false))
}

// Blur schedules the list to close after the grace period that lets a click
// on a suggestion land first.
func (h *AutocompleteHandler) Blur(w http.ResponseWriter, r *http.Request) {
	c := h.controller(r.PathValue("clientId"))
	c.Blur()
	respondJSON(w, http.StatusOK, h.state(c, "", false))
}

// Select commits a clicked suggestion.
func (h *AutocompleteHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req autocompleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c := h.controller(r.PathValue("clientId"))
	c.Select(req.Suggestion)
	respondJSON(w, http.StatusOK, h.state(c, req.Suggestion, true))
}

// Reset drops the client's controller.
func (h *AutocompleteHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	delete(h.controllers, r.PathValue("clientId"))
	h.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// controller returns the client's controller, creating it on first use, and
// refreshes its suggestion pool from the current meal names.
func (h *AutocompleteHandler) controller(clientID string) *autocomplete.Controller {
	h.mu.Lock()
	c, ok := h.controllers[clientID]
	if !ok {
		c = autocomplete.NewController()
		h.controllers[clientID] = c
	}
	h.mu.Unlock()

	c.SetSuggestions(h.meals.Names())
	return c
}

func (h *AutocompleteHandler) state(c *autocomplete.Controller, selected string, handled bool) autocompleteState {
	visible := c.Visible()
	if visible == nil {
		visible = []string{}
	}
	return autocompleteState{
		Text:        c.Text(),
		Visible:     visible,
		Highlighted: c.Highlighted(),
		Selected:    selected,
		Handled:     handled,
	}
}
