package handlers

import (
	"errors"
	"net/http"

	"mymeals/internal/repository"
)

// FamilyHandler serves the family member API.
type FamilyHandler struct {
	family *repository.FamilyRepository
}

func NewFamilyHandler(family *repository.FamilyRepository) *FamilyHandler {
	return &FamilyHandler{family: family}
}

type memberRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// List returns all live family members.
func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.family.Members())
}

// Create adds a family member.
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.family.AddMember(req.Name, req.Avatar)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "Failed to add family member", err)
		return
	}
	respondJSON(w, http.StatusCreated, member)
}

// Get returns a single live member by ID.
func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, err := h.family.GetMember(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Family member not found", "", nil)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// Update renames a member or changes their avatar. Blank fields keep the
// current value.
func (h *FamilyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.family.UpdateMember(r.PathValue("id"), req.Name, req.Avatar)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			respondWithError(w, http.StatusNotFound, "Family member not found", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to update family member", "Failed to update family member", err)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// Delete tombstones a member. Ratings the member left on meals are kept.
func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.family.DeleteMember(r.PathValue("id")); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			respondWithError(w, http.StatusNotFound, "Family member not found", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to delete family member", "Failed to delete family member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
