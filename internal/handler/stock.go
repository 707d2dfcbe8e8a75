package handler

import (
	"net/http"

	"github.com/maurobense/ShingekiNoAPP/internal/apierror"
	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/middleware"
	"github.com/maurobense/ShingekiNoAPP/internal/repository"
	"github.com/maurobense/ShingekiNoAPP/internal/service"

	"github.com/gin-gonic/gin"
)

type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler { return &StockHandler{svc: svc} }

// movimientosQuery holds the list filters of GET /v1/stock/movimientos.
type movimientosQuery struct {
	SucursalID    uint   `form:"sucursal_id"`
	IngredienteID uint   `form:"ingrediente_id"`
	Tipo          string `form:"tipo"`
	Page          int    `form:"page"`
	Limit         int    `form:"limit"`
}

// RegistrarMovimiento godoc
// @Summary Registra un ingreso, egreso o cambio de stock minimo
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovimientoStockRequest true "Movimiento"
// @Success 201 {object} dto.StockResponse
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/stock/movimientos [post]
func (h *StockHandler) RegistrarMovimiento(c *gin.Context) {
	var req dto.MovimientoStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	var usuarioID *uint
	if claims := middleware.GetClaims(c); claims != nil {
		usuarioID = &claims.UserID
	}
	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarMovimientos godoc
// @Summary Lista el historial de movimientos de stock
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param sucursal_id query int false "Sucursal"
// @Param ingrediente_id query int false "Ingrediente"
// @Param tipo query string false "pedido, ajuste_manual o umbral"
// @Param page query int false "Pagina"
// @Param limit query int false "Tamano de pagina (max 200)"
// @Success 200 {object} dto.MovimientoStockListResponse
// @Router /v1/stock/movimientos [get]
func (h *StockHandler) ListarMovimientos(c *gin.Context) {
	var q movimientosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), repository.MovimientoStockFilter{
		SucursalID:    q.SucursalID,
		IngredienteID: q.IngredienteID,
		Tipo:          q.Tipo,
		Page:          q.Page,
		Limit:         q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PorSucursal godoc
// @Summary Lista el stock de ingredientes de una sucursal
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID de sucursal"
// @Success 200 {array} dto.StockResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sucursales/{id}/stock [get]
func (h *StockHandler) PorSucursal(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarPorSucursal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Alertas lists the balances at or below their threshold.
func (h *StockHandler) Alertas(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarAlertas(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
