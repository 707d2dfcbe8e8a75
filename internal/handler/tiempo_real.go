package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/apierror"
	"github.com/maurobense/ShingekiNoAPP/internal/realtime"

	"github.com/gin-gonic/gin"
)

const keepAliveInterval = 20 * time.Second

type TiempoRealHandler struct{ hub *realtime.Hub }

func NewTiempoRealHandler(hub *realtime.Hub) *TiempoRealHandler {
	return &TiempoRealHandler{hub: hub}
}

// Stream godoc
// @Summary Suscribe a eventos en tiempo real (SSE)
// @Description grupo=kitchen recibe pedidos nuevos y cambios de estado; grupo=<id> o <tracking> sigue un pedido.
// @Tags tiempo-real
// @Produce text/event-stream
// @Security BearerAuth
// @Param grupo query []string true "Grupos a los que unirse" collectionFormat(multi)
// @Success 200 {object} realtime.Mensaje
// @Failure 400 {object} apierror.APIError
// @Router /v1/tiempo-real/stream [get]
func (h *TiempoRealHandler) Stream(c *gin.Context) {
	grupos := c.QueryArray("grupo")
	if len(grupos) == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("Debe indicar al menos un grupo"))
		return
	}
	streamGrupos(c, h.hub, grupos)
}

// streamGrupos relays every message of grupos to the client until it
// disconnects.
func streamGrupos(c *gin.Context, hub *realtime.Hub, grupos []string) {
	sub := hub.Subscribe(grupos...)
	defer hub.Unsubscribe(sub)
	serveStream(c, sub)
}

// serveStream writes initial first, then everything sub receives. The caller
// owns the subscription.
func serveStream(c *gin.Context, sub *realtime.Suscripcion, initial ...realtime.Mensaje) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	for _, msg := range initial {
		c.SSEvent(msg.Evento, msg)
	}
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(msg.Evento, msg)
			return true
		case <-ticker.C:
			_, err := io.WriteString(w, ": keepalive\n\n")
			return err == nil
		}
	})
}
