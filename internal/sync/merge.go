package sync

import "mymeals/internal/models"

// MergeMeals combines both collections record by record: for a shared ID
// the copy with the strictly later updatedAt wins, so a tie keeps the
// remote copy. Remote records keep their order; local-only records follow
// in local order. Tombstones merge like any other record, which lets a
// deletion on one device out-date an older edit on another.
func MergeMeals(local, remote []models.Meal) []models.Meal {
	index := make(map[string]int, len(remote))
	merged := make([]models.Meal, len(remote))
	copy(merged, remote)
	for i := range merged {
		index[merged[i].ID] = i
	}

	for _, meal := range local {
		at, ok := index[meal.ID]
		if !ok {
			index[meal.ID] = len(merged)
			merged = append(merged, meal)
			continue
		}
		if meal.ModifiedAt().After(merged[at].ModifiedAt()) {
			merged[at] = meal
		}
	}
	return merged
}

// MergeMembers applies the same last-write-wins rule to family members.
func MergeMembers(local, remote []models.FamilyMember) []models.FamilyMember {
	index := make(map[string]int, len(remote))
	merged := make([]models.FamilyMember, len(remote))
	copy(merged, remote)
	for i := range merged {
		index[merged[i].ID] = i
	}

	for _, member := range local {
		at, ok := index[member.ID]
		if !ok {
			index[member.ID] = len(merged)
			merged = append(merged, member)
			continue
		}
		if member.ModifiedAt().After(merged[at].ModifiedAt()) {
			merged[at] = member
		}
	}
	return merged
}
