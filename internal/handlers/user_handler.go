package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rudigital/backend/internal/services"
)

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// ListUsers pages through accounts
// @Summary List users (admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (1..50, default 20)"
// @Param search query string false "Name or email fragment"
// @Success 200 {object} services.SuccessResponse{data=services.UserPage}
// @Failure 403 {object} services.ErrorResponse
// @Router /admin/usuarios [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.ListUsers(r.Context(), page, limit, r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	services.SendSuccessResponse(w, result, http.StatusOK)
}

// UpdateUser changes role or active flag
// @Summary Update user (admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body services.UserUpdate true "Fields to change"
// @Success 200 {object} services.SuccessResponse{data=object{mensagem=string}}
// @Failure 404 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /admin/usuarios/{id} [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var upd services.UserUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	if err := h.service.UpdateUser(r.Context(), id, upd); err != nil {
		writeError(w, err)
		return
	}
	services.SendSuccessResponse(w, map[string]string{"mensagem": "Utilizador atualizado com sucesso."}, http.StatusOK)
}
