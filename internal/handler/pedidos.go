package handler

import (
	"net/http"

	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/service"

	"github.com/gin-gonic/gin"
)

type PedidosHandler struct{ svc service.PedidoService }

func NewPedidosHandler(svc service.PedidoService) *PedidosHandler {
	return &PedidosHandler{svc: svc}
}

// Crear godoc
// @Summary Crea un pedido y descuenta el stock de la sucursal
// @Tags pedidos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearPedidoRequest true "Pedido"
// @Success 201 {object} dto.PedidoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/pedidos [post]
func (h *PedidosHandler) Crear(c *gin.Context) {
	var req dto.CrearPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Obtener godoc
// @Summary Obtiene un pedido por ID
// @Tags pedidos
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del pedido"
// @Success 200 {object} dto.PedidoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/pedidos/{id} [get]
func (h *PedidosHandler) Obtener(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary Lista pedidos, opcionalmente filtrados por estado
// @Tags pedidos
// @Produce json
// @Security BearerAuth
// @Param estado query string false "Pending, Confirmed, Cooking, Ready, OnTheWay, Delivered, Cancelled"
// @Success 200 {array} dto.PedidoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/pedidos [get]
func (h *PedidosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.ListarPorEstado(c.Request.Context(), c.Query("estado"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PorCliente lists every order of a client, newest first.
func (h *PedidosHandler) PorCliente(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarPorCliente(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarEstado godoc
// @Summary Cambia el estado de un pedido
// @Description Permite avanzar a cualquier estado posterior o cancelar.
// @Tags pedidos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del pedido"
// @Param body body dto.CambiarEstadoRequest true "Nuevo estado"
// @Success 200 {object} dto.PedidoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/pedidos/{id}/estado [patch]
func (h *PedidosHandler) CambiarEstado(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req dto.CambiarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarEstado(c.Request.Context(), id, req.Estado, usuarioActual(c, req.UsuarioID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Avanzar godoc
// @Summary Avanza el pedido al siguiente estado
// @Tags pedidos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del pedido"
// @Param body body dto.AccionPedidoRequest false "Usuario"
// @Success 200 {object} dto.PedidoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/pedidos/{id}/avanzar [post]
func (h *PedidosHandler) Avanzar(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req dto.AccionPedidoRequest
	if !bindOptional(c, &req) {
		return
	}
	resp, err := h.svc.Avanzar(c.Request.Context(), id, usuarioActual(c, req.UsuarioID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancelar godoc
// @Summary Cancela un pedido no finalizado
// @Tags pedidos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del pedido"
// @Param body body dto.AccionPedidoRequest false "Usuario"
// @Success 200 {object} dto.PedidoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/pedidos/{id}/cancelar [post]
func (h *PedidosHandler) Cancelar(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req dto.AccionPedidoRequest
	if !bindOptional(c, &req) {
		return
	}
	resp, err := h.svc.Cancelar(c.Request.Context(), id, usuarioActual(c, req.UsuarioID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial returns the status history of an order, oldest first.
func (h *PedidosHandler) Historial(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Historial(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
