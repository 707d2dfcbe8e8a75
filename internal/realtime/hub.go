package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Broker delivers a message to every current subscriber of its group.
type Broker interface {
	Publish(ctx context.Context, msg Mensaje) error
}

// Suscripcion is one connected client. C is closed on Unsubscribe.
type Suscripcion struct {
	ID     string
	Grupos []string
	C      <-chan Mensaje
	ch     chan Mensaje
}

// Hub is the in-process group registry. It is the delivery end of every
// broker: the redis and nats brokers relay remote messages into it.
type Hub struct {
	mu     sync.RWMutex
	grupos map[string]map[string]*Suscripcion
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{grupos: make(map[string]map[string]*Suscripcion), buffer: buffer}
}

// Subscribe joins the given groups with one shared channel.
func (h *Hub) Subscribe(grupos ...string) *Suscripcion {
	ch := make(chan Mensaje, h.buffer)
	s := &Suscripcion{ID: uuid.NewString(), Grupos: grupos, C: ch, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, g := range grupos {
		if h.grupos[g] == nil {
			h.grupos[g] = make(map[string]*Suscripcion)
		}
		h.grupos[g][s.ID] = s
	}
	log.Debug().Str("subscriber_id", s.ID).Strs("grupos", grupos).Msg("realtime: subscriber joined")
	return s
}

// Unsubscribe leaves every group and closes the channel.
func (h *Hub) Unsubscribe(s *Suscripcion) {
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := false
	for _, g := range s.Grupos {
		if _, ok := h.grupos[g][s.ID]; ok {
			delete(h.grupos[g], s.ID)
			removed = true
		}
		if len(h.grupos[g]) == 0 {
			delete(h.grupos, g)
		}
	}
	if removed {
		close(s.ch)
	}
	log.Debug().Str("subscriber_id", s.ID).Msg("realtime: subscriber left")
}

// Publish never blocks: a subscriber whose buffer is full misses the message.
func (h *Hub) Publish(_ context.Context, msg Mensaje) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, s := range h.grupos[msg.Grupo] {
		select {
		case s.ch <- msg:
		default:
			log.Warn().Str("subscriber_id", id).Str("grupo", msg.Grupo).Msg("realtime: subscriber buffer full, dropping event")
		}
	}
	return nil
}

// Suscriptores returns how many subscribers are in grupo.
func (h *Hub) Suscriptores(grupo string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.grupos[grupo])
}
