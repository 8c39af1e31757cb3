package models

import (
	"errors"
	"strings"
	"time"
)

// FamilyMember is a person who can rate meals. Members are never hard
// deleted; DeletedAt marks a tombstone that is kept in storage so deletions
// propagate to the remote store on the next sync.
type FamilyMember struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	DeletedAt string `json:"deletedAt,omitempty"`
}

// Deleted reports whether the member is a soft-delete tombstone.
func (m *FamilyMember) Deleted() bool {
	return m.DeletedAt != ""
}

// ModifiedAt returns the member's last-write timestamp for merge comparison,
// falling back to CreatedAt for records written before UpdatedAt existed.
func (m *FamilyMember) ModifiedAt() time.Time {
	return parseTimestamp(m.UpdatedAt, m.CreatedAt)
}

// Validate checks the invariants required before a member may be stored.
func (m *FamilyMember) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("member name is required")
	}
	return nil
}
