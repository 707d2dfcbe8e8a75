package handler

import (
	"net/http"

	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/service"

	"github.com/gin-gonic/gin"
)

type RecetasHandler struct{ svc service.RecetaService }

func NewRecetasHandler(svc service.RecetaService) *RecetasHandler { return &RecetasHandler{svc: svc} }

// Obtener godoc
// @Summary Obtiene la receta de un producto
// @Tags recetas
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del producto"
// @Success 200 {object} dto.RecetaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/productos/{id}/receta [get]
func (h *RecetasHandler) Obtener(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Agregar godoc
// @Summary Agrega un ingrediente a la receta
// @Tags recetas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del producto"
// @Param body body dto.AgregarIngredienteRequest true "Linea de receta"
// @Success 201 {object} dto.RecetaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/productos/{id}/receta [post]
func (h *RecetasHandler) Agregar(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req dto.AgregarIngredienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Agregar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Quitar soft-deletes one recipe line.
func (h *RecetasHandler) Quitar(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	ingredienteID, ok := parseUintParam(c, "ingredienteId")
	if !ok {
		return
	}
	if err := h.svc.Quitar(c.Request.Context(), id, ingredienteID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
