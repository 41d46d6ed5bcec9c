package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rudigital/backend/internal/services"
)

type MenuHandler struct {
	service *services.MenuService
	now     func() time.Time
}

func NewMenuHandler(service *services.MenuService) *MenuHandler {
	return &MenuHandler{service: service, now: time.Now}
}

func (h *MenuHandler) dataParam(r *http.Request) string {
	if d := r.URL.Query().Get("data"); d != "" {
		return d
	}
	return h.now().Format("2006-01-02")
}

// GetMenu returns the active menus of a day
// @Summary Cardápio
// @Tags Cardapio
// @Produce json
// @Security BearerAuth
// @Param data query string false "Date (YYYY-MM-DD), default today"
// @Success 200 {object} services.SuccessResponse{data=object{data=string,cardapios=[]models.Cardapio}}
// @Failure 422 {object} services.ErrorResponse
// @Router /cardapio [get]
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	data := h.dataParam(r)
	menus, err := h.service.GetMenu(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}
	services.SendSuccessResponse(w, map[string]any{"data": data, "cardapios": menus}, http.StatusOK)
}

// ListMenus lists every menu of a day, inactive ones included
// @Summary List menus (admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param data query string false "Date (YYYY-MM-DD), default today"
// @Success 200 {object} services.SuccessResponse{data=object{data=string,cardapios=[]models.Cardapio}}
// @Failure 403 {object} services.ErrorResponse
// @Router /admin/cardapio [get]
func (h *MenuHandler) ListMenus(w http.ResponseWriter, r *http.Request) {
	data := h.dataParam(r)
	menus, err := h.service.ListMenus(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}
	services.SendSuccessResponse(w, map[string]any{"data": data, "cardapios": menus}, http.StatusOK)
}

// CreateMenu creates a menu with its items
// @Summary Create menu (admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.MenuInput true "Menu"
// @Success 201 {object} services.SuccessResponse{data=object{mensagem=string,cardapio_id=int}}
// @Failure 409 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /admin/cardapio [post]
func (h *MenuHandler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	var in services.MenuInput
	if !decodeJSON(w, r, &in) {
		return
	}

	id, err := h.service.CreateMenu(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	services.SendSuccessResponse(w, map[string]any{
		"mensagem":    "Cardápio criado com sucesso.",
		"cardapio_id": id,
	}, http.StatusCreated)
}

// UpdateMenu edits a menu. Sending itens replaces all of them.
// @Summary Update menu (admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Menu ID"
// @Param request body services.MenuUpdate true "Fields to change"
// @Success 200 {object} services.SuccessResponse{data=object{mensagem=string}}
// @Failure 404 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /admin/cardapio/{id} [put]
func (h *MenuHandler) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var upd services.MenuUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	if err := h.service.UpdateMenu(r.Context(), id, upd); err != nil {
		writeError(w, err)
		return
	}
	services.SendSuccessResponse(w, map[string]string{"mensagem": "Cardápio atualizado com sucesso."}, http.StatusOK)
}

// DeactivateMenu soft-deletes a menu
// @Summary Deactivate menu (admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Menu ID"
// @Success 200 {object} services.SuccessResponse{data=object{mensagem=string}}
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/cardapio/{id} [delete]
func (h *MenuHandler) DeactivateMenu(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.DeactivateMenu(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	services.SendSuccessResponse(w, map[string]string{"mensagem": "Cardápio desativado com sucesso."}, http.StatusOK)
}
