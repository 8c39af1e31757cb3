package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"mymeals/internal/repository"
	"mymeals/internal/service"
)

// ExportHandler produces the meal history CSV, as a download or by email.
type ExportHandler struct {
	meals        *repository.MealRepository
	family       *repository.FamilyRepository
	emailService *service.EmailService
}

func NewExportHandler(meals *repository.MealRepository, family *repository.FamilyRepository, emailService *service.EmailService) *ExportHandler {
	return &ExportHandler{meals: meals, family: family, emailService: emailService}
}

// Download streams the history CSV as an attachment.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	csv := repository.ExportHistoryCSV(h.meals.Meals(), h.family.Members())

	filename := fmt.Sprintf("meal-history-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	fmt.Fprint(w, csv)
}

type emailExportRequest struct {
	Email string `json:"email"`
}

// Email sends the history CSV to the given address via SES.
func (h *ExportHandler) Email(w http.ResponseWriter, r *http.Request) {
	if !h.emailService.IsEnabled() {
		respondWithError(w, http.StatusBadRequest, "Email export is not configured", "", nil)
		return
	}

	var req emailExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !strings.Contains(req.Email, "@") {
		respondWithError(w, http.StatusBadRequest, "A valid email address is required", "", nil)
		return
	}

	csv := repository.ExportHistoryCSV(h.meals.Meals(), h.family.Members())
	if err := h.emailService.SendExportEmail(r.Context(), req.Email, csv); err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to send export email", "Failed to send export email", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
