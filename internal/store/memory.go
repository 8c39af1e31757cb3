package store

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"mymeals/internal/models"
)

// Memory is an in-memory Store used by tests and by the export CLI when no
// database is involved. It keeps the same raw-JSON representation as DBStore
// so parse-failure recovery behaves identically.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (s *Memory) LoadMeals() ([]models.Meal, error) {
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

func (s *Memory) SaveMeals(meals []models.Meal) error {
	if meals == nil {
		meals = []models.Meal{}
	}
	data, err := json.Marshal(mealsDocument{Meals: meals})
	if err != nil {
		return fmt.Errorf("failed to encode meals: %w", err)
	}
	return s.SaveValue(MealsKey, string(data))
}

func (s *Memory) LoadMembers() ([]models.FamilyMember, error) {
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

func (s *Memory) SaveMembers(members []models.FamilyMember) error {
	if members == nil {
		members = []models.FamilyMember{}
	}
	data, err := json.Marshal(familyDocument{Members: members})
	if err != nil {
		return fmt.Errorf("failed to encode family members: %w", err)
	}
	return s.SaveValue(FamilyKey, string(data))
}

func (s *Memory) LoadValue(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *Memory) SaveValue(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *Memory) DeleteValue(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
