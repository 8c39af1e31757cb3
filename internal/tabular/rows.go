package tabular

import (
	"encoding/json"
	"log"

	"mymeals/internal/models"
)

// Column headers for the two collections. Both remote backends write these
// as the first row and skip them when reading.
var (
	MealColumns   = []string{"id", "name", "date", "ratings", "ingredients", "notes", "createdAt", "updatedAt", "deletedAt"}
	FamilyColumns = []string{"id", "name", "avatar", "createdAt", "updatedAt", "deletedAt"}
)

// MealsToRows renders meals as a header row followed by one row per meal,
// tombstones included. Ratings are always serialized as a JSON array;
// ingredients are left empty when the meal has none.
func MealsToRows(meals []models.Meal) [][]string {
	rows := make([][]string, 0, len(meals)+1)
	rows = append(rows, MealColumns)
	for _, meal := range meals {
		ratings := meal.Ratings
		if ratings == nil {
			ratings = []models.MealRating{}
		}
		ratingsJSON, err := json.Marshal(ratings)
		if err != nil {
			log.Printf("tabular: skipping meal %s: marshal ratings: %v", meal.ID, err)
			continue
		}
		ingredients := ""
		if len(meal.Ingredients) > 0 {
			data, err := json.Marshal(meal.Ingredients)
			if err != nil {
				log.Printf("tabular: skipping meal %s: marshal ingredients: %v", meal.ID, err)
				continue
			}
			ingredients = string(data)
		}
		rows = append(rows, []string{
			meal.ID,
			meal.Name,
			meal.Date,
			string(ratingsJSON),
			ingredients,
			meal.Notes,
			meal.CreatedAt,
			meal.UpdatedAt,
			meal.DeletedAt,
		})
	}
	return rows
}

// RowsToMeals parses rows produced by MealsToRows or an older writer that
// predates the deletedAt column. The first row is the header and is skipped.
// Rows with fewer than eight fields are ignored; rows whose JSON fields do
// not parse are logged and skipped rather than failing the whole import.
func RowsToMeals(rows [][]string) []models.Meal {
	if len(rows) < 2 {
		return nil
	}
	meals := make([]models.Meal, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 8 {
			continue
		}
		meal := models.Meal{
			ID:        row[0],
			Name:      row[1],
			Date:      row[2],
			Notes:     row[5],
			CreatedAt: row[6],
			UpdatedAt: row[7],
		}
		if len(row) > 8 {
			meal.DeletedAt = row[8]
		}
		if row[3] != "" {
			if err := json.Unmarshal([]byte(row[3]), &meal.Ratings); err != nil {
				log.Printf("tabular: skipping row for meal %s: parse ratings: %v", meal.ID, err)
				continue
			}
		}
		if row[4] != "" {
			if err := json.Unmarshal([]byte(row[4]), &meal.Ingredients); err != nil {
				log.Printf("tabular: skipping row for meal %s: parse ingredients: %v", meal.ID, err)
				continue
			}
		}
		meals = append(meals, meal)
	}
	return meals
}

// MembersToRows renders family members as a header row followed by one row
// per member, tombstones included.
func MembersToRows(members []models.FamilyMember) [][]string {
	rows := make([][]string, 0, len(members)+1)
	rows = append(rows, FamilyColumns)
	for _, member := range members {
		rows = append(rows, []string{
			member.ID,
			member.Name,
			member.Avatar,
			member.CreatedAt,
			member.UpdatedAt,
			member.DeletedAt,
		})
	}
	return rows
}

// RowsToMembers parses rows produced by MembersToRows or an older writer
// without the updatedAt and deletedAt columns. Rows with fewer than four
// fields are ignored; a missing updatedAt falls back to createdAt.
func RowsToMembers(rows [][]string) []models.FamilyMember {
	if len(rows) < 2 {
		return nil
	}
	members := make([]models.FamilyMember, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 4 {
			continue
		}
		member := models.FamilyMember{
			ID:        row[0],
			Name:      row[1],
			Avatar:    row[2],
			CreatedAt: row[3],
			UpdatedAt: row[3],
		}
		if len(row) > 4 && row[4] != "" {
			member.UpdatedAt = row[4]
		}
		if len(row) > 5 {
			member.DeletedAt = row[5]
		}
		members = append(members, member)
	}
	return members
}
