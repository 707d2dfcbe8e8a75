package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const subjectPrefix = "rt."

// NATSBroker publishes on subject rt.<grupo> and relays rt.> into the local Hub.
type NATSBroker struct {
	conn *nats.Conn
	sub  *nats.Subscription
	hub  *Hub
}

func NewNATSBroker(url string, hub *Hub) (*NATSBroker, error) {
	conn, err := nats.Connect(url, nats.Name("shingeki-realtime"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSBroker{conn: conn, hub: hub}, nil
}

func (b *NATSBroker) Publish(_ context.Context, msg Mensaje) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.conn.Publish(subjectPrefix+msg.Grupo, data)
}

// Start subscribes the relay. Messages are handled on the NATS client goroutine.
func (b *NATSBroker) Start(ctx context.Context) error {
	sub, err := b.conn.Subscribe(subjectPrefix+">", func(m *nats.Msg) {
		var msg Mensaje
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log.Error().Err(err).Str("subject", m.Subject).Msg("realtime: invalid nats message")
			return
		}
		msg.Grupo = strings.TrimPrefix(m.Subject, subjectPrefix)
		_ = b.hub.Publish(ctx, msg)
	})
	if err != nil {
		return err
	}
	b.sub = sub
	log.Info().Msg("realtime: nats relay started")
	return nil
}

func (b *NATSBroker) Close() error {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	return b.conn.Drain()
}
