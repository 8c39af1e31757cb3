package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"mymeals/internal/database"
	"mymeals/internal/models"
)

// Storage keys. The meal and family collections are stored as JSON documents
// under fixed keys; the remaining keys hold small scalar values owned by the
// auth and sync layers.
const (
	MealsKey       = "my-meals-data"
	FamilyKey      = "my-meals-family"
	AccessTokenKey = "my-meals-google-token"
	TokenExpiryKey = "my-meals-google-token-expiry"
	AccountKey     = "my-meals-google-account"
	LastSyncKey    = "my-meals-last-sync"
	SpreadsheetKey = "my-meals-sheets-spreadsheet-id"
)

// Store is the persisted key-value state the repositories and the sync
// engine share. Collection loads recover from missing or corrupt data by
// returning an empty collection.
type Store interface {
	LoadMeals() ([]models.Meal, error)
	SaveMeals(meals []models.Meal) error
	LoadMembers() ([]models.FamilyMember, error)
	SaveMembers(members []models.FamilyMember) error

	LoadValue(key string) (string, bool)
	SaveValue(key, value string) error
	DeleteValue(key string) error
}

// mealsDocument matches the persisted shape of the meals collection.
type mealsDocument struct {
	Meals []models.Meal `json:"meals"`
}

// familyDocument matches the persisted shape of the family collection.
type familyDocument struct {
	Members []models.FamilyMember `json:"members"`
}

// DBStore persists application state in the app_state table.
type DBStore struct {
	db *database.DB
}

// New creates a store backed by the given database.
func New(db *database.DB) *DBStore {
	return &DBStore{db: db}
}

// LoadMeals reads the meals collection. Missing or corrupt data yields an
// empty collection.
func (s *DBStore) LoadMeals() ([]models.Meal, error) {
	raw, ok := s.LoadValue(MealsKey)
	if !ok {
		return nil, nil
	}
	var doc mealsDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		log.Printf("Failed to parse stored meals, starting empty: %v", err)
		return nil, nil
	}
	return doc.Meals, nil
}

// SaveMeals overwrites the whole meals collection, tombstones included.
func (s *DBStore) SaveMeals(meals []models.Meal) error {
	if meals == nil {
		meals = []models.Meal{}
	}
	data, err := json.Marshal(mealsDocument{Meals: meals})
	if err != nil {
		return fmt.Errorf("failed to encode meals: %w", err)
	}
	return s.SaveValue(MealsKey, string(data))
}

// LoadMembers reads the family collection. Missing or corrupt data yields an
// empty collection.
func (s *DBStore) LoadMembers() ([]models.FamilyMember, error) {
	raw, ok := s.LoadValue(FamilyKey)
	if !ok {
		return nil, nil
	}
	var doc familyDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		log.Printf("Failed to parse stored family members, starting empty: %v", err)
		return nil, nil
	}
	return doc.Members, nil
}

// SaveMembers overwrites the whole family collection, tombstones included.
func (s *DBStore) SaveMembers(members []models.FamilyMember) error {
	if members == nil {
		members = []models.FamilyMember{}
	}
	data, err := json.Marshal(familyDocument{Members: members})
	if err != nil {
		return fmt.Errorf("failed to encode family members: %w", err)
	}
	return s.SaveValue(FamilyKey, string(data))
}

// LoadValue reads a raw value by key. Read failures are logged and reported
// as absence so callers always start from a usable state.
func (s *DBStore) LoadValue(key string) (string, bool) {
	var value string
	err := s.db.QueryRow("SELECT state_value FROM app_state WHERE state_key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		log.Printf("Failed to read state %q: %v", key, err)
		return "", false
	}
	return value, true
}

// SaveValue writes a raw value under a key, replacing any previous value.
func (s *DBStore) SaveValue(key, value string) error {
	if err := s.db.UpsertState(key, value); err != nil {
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	return nil
}

// DeleteValue removes a key. Deleting an absent key is not an error.
func (s *DBStore) DeleteValue(key string) error {
	if _, err := s.db.Exec("DELETE FROM app_state WHERE state_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete state %q: %w", key, err)
	}
	return nil
}
