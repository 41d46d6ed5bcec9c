package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rudigital/backend/internal/middleware"
	"github.com/rudigital/backend/internal/services"
)

type RatingHandler struct {
	service *services.RatingService
}

func NewRatingHandler(service *services.RatingService) *RatingHandler {
	return &RatingHandler{service: service}
}

// SubmitRating stores the user's rating of a menu
// @Summary Submit rating
// @Tags Avaliacao
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.RatingInput true "Rating"
// @Success 201 {object} services.SuccessResponse{data=object{mensagem=string}}
// @Failure 404 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /avaliacao [post]
func (h *RatingHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Token inválido.", http.StatusUnauthorized, nil)
		return
	}

	var in services.RatingInput
	if !decodeJSON(w, r, &in) {
		return
	}

	if err := h.service.SubmitRating(r.Context(), userID, in); err != nil {
		writeError(w, err)
		return
	}
	services.SendSuccessResponse(w, map[string]string{
		"mensagem": "Avaliação enviada com sucesso! O RU agradece seu feedback.",
	}, http.StatusCreated)
}

// GetRating returns the user's rating of a menu, or null
// @Summary Get rating
// @Tags Avaliacao
// @Produce json
// @Security BearerAuth
// @Param cardapio_id query int true "Menu ID"
// @Success 200 {object} services.SuccessResponse{data=object{avaliacao=models.Avaliacao}}
// @Failure 422 {object} services.ErrorResponse
// @Router /avaliacao [get]
func (h *RatingHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Token inválido.", http.StatusUnauthorized, nil)
		return
	}

	cardapioID, err := strconv.ParseInt(r.URL.Query().Get("cardapio_id"), 10, 64)
	if err != nil {
		cardapioID = 0
	}

	rating, err := h.service.GetRating(r.Context(), userID, cardapioID)
	if err != nil {
		writeError(w, err)
		return
	}
	services.SendSuccessResponse(w, map[string]any{"avaliacao": rating}, http.StatusOK)
}

// Report aggregates ratings for the admin panel
// @Summary Ratings report (admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param data query string false "Date (YYYY-MM-DD)"
// @Param refeicao query string false "almoco or jantar"
// @Success 200 {object} services.SuccessResponse{data=services.RatingReport}
// @Failure 422 {object} services.ErrorResponse
// @Router /admin/avaliacoes [get]
func (h *RatingHandler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.service.Report(r.Context(), q.Get("data"), q.Get("refeicao"))
	if err != nil {
		writeError(w, err)
		return
	}
	services.SendSuccessResponse(w, report, http.StatusOK)
}

// ExportReport downloads the ratings report as an .xlsx file
// @Summary Ratings report spreadsheet (admin)
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param data query string false "Date (YYYY-MM-DD)"
// @Param refeicao query string false "almoco or jantar"
// @Success 200 {file} file
// @Failure 422 {object} services.ErrorResponse
// @Router /admin/avaliacoes/export [get]
func (h *RatingHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.service.Report(r.Context(), q.Get("data"), q.Get("refeicao"))
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := services.WriteReportXLSX(&buf, report); err != nil {
		writeError(w, fmt.Errorf("render ratings spreadsheet: %w", err))
		return
	}

	fileName := fmt.Sprintf("avaliacoes_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
