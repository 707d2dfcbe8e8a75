package handler

import (
	"encoding/json"
	"net/http"

	"github.com/maurobense/ShingekiNoAPP/internal/apierror"
	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/infra"
	"github.com/maurobense/ShingekiNoAPP/internal/realtime"
	"github.com/maurobense/ShingekiNoAPP/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SeguimientoHandler serves the public tracking page: the order snapshot,
// its live status stream and the driver location feed.
type SeguimientoHandler struct {
	svc   service.PedidoService
	hub   *realtime.Hub
	cache *infra.SeguimientoCache
}

func NewSeguimientoHandler(svc service.PedidoService, hub *realtime.Hub, cache *infra.SeguimientoCache) *SeguimientoHandler {
	return &SeguimientoHandler{svc: svc, hub: hub, cache: cache}
}

// Obtener godoc
// @Summary Obtiene un pedido por su codigo de seguimiento
// @Tags seguimiento
// @Produce json
// @Param tracking path string true "Codigo de seguimiento (UUID)"
// @Success 200 {object} dto.PedidoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/seguimiento/{tracking} [get]
func (h *SeguimientoHandler) Obtener(c *gin.Context) {
	id, ok := parseTracking(c)
	if !ok {
		return
	}
	tracking := id.String()
	ctx := c.Request.Context()

	var cached dto.PedidoResponse
	if h.cache.Get(ctx, tracking, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}
	resp, err := h.svc.ObtenerPorTracking(ctx, tracking)
	if err != nil {
		respondError(c, err)
		return
	}
	h.cache.Set(ctx, tracking, resp)
	c.JSON(http.StatusOK, resp)
}

// Stream godoc
// @Summary Sigue el estado de un pedido en tiempo real (SSE)
// @Description El primer evento informa el estado actual.
// @Tags seguimiento
// @Produce text/event-stream
// @Param tracking path string true "Codigo de seguimiento (UUID)"
// @Success 200 {object} realtime.Mensaje
// @Failure 404 {object} apierror.APIError
// @Router /v1/seguimiento/{tracking}/stream [get]
func (h *SeguimientoHandler) Stream(c *gin.Context) {
	id, ok := parseTracking(c)
	if !ok {
		return
	}
	grupo := realtime.GrupoTracking(id)

	// Join before reading the snapshot so a transition committed in between
	// is still relayed.
	sub := h.hub.Subscribe(grupo)
	defer h.hub.Unsubscribe(sub)

	resp, err := h.svc.ObtenerPorTracking(c.Request.Context(), id.String())
	if err != nil {
		respondError(c, err)
		return
	}
	datos, _ := json.Marshal(gin.H{"status": resp.Estado})
	serveStream(c, sub, realtime.Mensaje{
		Grupo:  grupo,
		Evento: realtime.EventoEstadoCambiado,
		Datos:  datos,
	})
}

// parseTracking reads the tracking code path param. Any form uuid.Parse
// accepts is reduced to the canonical lowercase string; a malformed code is
// answered like an unknown one.
func parseTracking(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("tracking"))
	if err != nil {
		respondError(c, apierror.NotFound("Pedido no encontrado"))
		return uuid.Nil, false
	}
	return id, true
}

// Ubicacion godoc
// @Summary Publica la ubicacion GPS del repartidor
// @Tags seguimiento
// @Accept json
// @Security BearerAuth
// @Param tracking path string true "Codigo de seguimiento (UUID)"
// @Param body body dto.UbicacionRepartidorRequest true "Coordenadas"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/seguimiento/{tracking}/ubicacion [post]
func (h *SeguimientoHandler) Ubicacion(c *gin.Context) {
	var req dto.UbicacionRepartidorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.EnviarUbicacion(c.Request.Context(), c.Param("tracking"), req.Lat, req.Lng); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
