package repository

import (
	"sort"
	"strings"
	"time"

	"mymeals/internal/models"
	"mymeals/internal/tabular"
)

var exportColumns = []string{"Date", "Time", "Meal", "Liked", "Disliked"}

// ExportHistoryCSV renders the live meal history as a human-readable CSV
// report, sorted by date descending. Rating columns list the member names
// comma-joined; a rating whose member no longer exists shows as "Unknown".
// With no meals the result is the empty string.
func ExportHistoryCSV(meals []models.Meal, members []models.FamilyMember) string {
	live := liveMeals(meals)
	if len(live) == 0 {
		return ""
	}
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].Date > live[j].Date
	})

	names := make(map[string]string, len(members))
	for _, member := range members {
		if !member.Deleted() {
			names[member.ID] = member.Name
		}
	}

	rows := make([][]string, 0, len(live)+1)
	rows = append(rows, exportColumns)
	for _, meal := range live {
		var liked, disliked []string
		for _, rating := range meal.Ratings {
			name, ok := names[rating.MemberID]
			if !ok {
				name = "Unknown"
			}
			if rating.Liked {
				liked = append(liked, name)
			} else {
				disliked = append(disliked, name)
			}
		}
		rows = append(rows, []string{
			meal.Date,
			exportTime(meal.CreatedAt),
			meal.Name,
			strings.Join(liked, ", "),
			strings.Join(disliked, ", "),
		})
	}
	return tabular.EncodeCSV(rows)
}

// exportTime extracts the local clock time from a stored timestamp; an
// unparseable timestamp yields an empty column.
func exportTime(timestamp string) string {
	t, err := time.Parse(models.TimeFormat, timestamp)
	if err != nil {
		return ""
	}
	return t.Local().Format("15:04")
}
