package repository

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mymeals/internal/models"
	"mymeals/internal/notify"
	"mymeals/internal/store"
)

// FamilyRepository handles all family member operations.
type FamilyRepository struct {
	mu      sync.RWMutex
	store   store.Store
	events  *notify.Broadcaster
	members []models.FamilyMember
}

// NewFamilyRepository loads the family collection from the store.
func NewFamilyRepository(s store.Store, events *notify.Broadcaster) (*FamilyRepository, error) {
	members, err := s.LoadMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to load family members: %w", err)
	}
	return &FamilyRepository{store: s, events: events, members: members}, nil
}

// Reload replaces the working set with the store's current contents.
func (r *FamilyRepository) Reload() error {
	members, err := r.store.LoadMembers()
	if err != nil {
		return fmt.Errorf("failed to reload family members: %w", err)
	}
	r.mu.Lock()
	r.members = members
	r.mu.Unlock()
	return nil
}

// AddMember creates a family member.
func (r *FamilyRepository) AddMember(name, avatar string) (*models.FamilyMember, error) {
	now := models.Now()
	member := models.FamilyMember{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Avatar:    avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := member.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = append(r.members, member)
	if err := r.persist(); err != nil {
		r.members = r.members[:len(r.members)-1]
		return nil, err
	}
	return &member, nil
}

// UpdateMember applies a partial update to a live member. Empty name and
// avatar arguments leave the current values in place; a whitespace-only
// name also leaves the current name.
func (r *FamilyRepository) UpdateMember(id, name, avatar string) (*models.FamilyMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.members {
		if r.members[i].ID != id || r.members[i].Deleted() {
			continue
		}
		prev := r.members[i]
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			r.members[i].Name = trimmed
		}
		if avatar != "" {
			r.members[i].Avatar = avatar
		}
		r.members[i].UpdatedAt = models.Now()
		if err := r.persist(); err != nil {
			r.members[i] = prev
			return nil, err
		}
		member := r.members[i]
		return &member, nil
	}
	return nil, ErrMemberNotFound
}

// DeleteMember tombstones a member. Meals keep any ratings that reference
// the member; readers resolve those to an unknown member.
func (r *FamilyRepository) DeleteMember(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.members {
		if r.members[i].ID != id || r.members[i].Deleted() {
			continue
		}
		now := models.Now()
		prev := r.members[i]
		r.members[i].DeletedAt = now
		r.members[i].UpdatedAt = now
		if err := r.persist(); err != nil {
			r.members[i] = prev
			return err
		}
		return nil
	}
	return ErrMemberNotFound
}

// GetMember retrieves a live member by ID.
func (r *FamilyRepository) GetMember(id string) (*models.FamilyMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.members {
		if r.members[i].ID == id && !r.members[i].Deleted() {
			member := r.members[i]
			return &member, nil
		}
	}
	return nil, ErrMemberNotFound
}

// Members returns all live members in creation order.
func (r *FamilyRepository) Members() []models.FamilyMember {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var live []models.FamilyMember
	for i := range r.members {
		if !r.members[i].Deleted() {
			live = append(live, r.members[i])
		}
	}
	return live
}

// AllMembers returns the full collection including tombstones, for sync.
func (r *FamilyRepository) AllMembers() []models.FamilyMember {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]models.FamilyMember, len(r.members))
	copy(members, r.members)
	return members
}

func (r *FamilyRepository) persist() error {
	if err := r.store.SaveMembers(r.members); err != nil {
		return fmt.Errorf("failed to save family members: %w", err)
	}
	if r.events != nil {
		r.events.Publish(notify.Event{Kind: notify.EventFamily})
	}
	return nil
}
