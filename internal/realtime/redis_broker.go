package realtime

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const canalRedisPrefix = "rt:"

// RedisBroker publishes over Redis Pub/Sub so every API instance receives
// the event; Run relays what arrives into the local Hub.
type RedisBroker struct {
	rdb *redis.Client
	hub *Hub
}

func NewRedisBroker(rdb *redis.Client, hub *Hub) *RedisBroker {
	return &RedisBroker{rdb: rdb, hub: hub}
}

func (b *RedisBroker) Publish(ctx context.Context, msg Mensaje) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, canalRedisPrefix+msg.Grupo, data).Err()
}

// Run blocks until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) {
	ps := b.rdb.PSubscribe(ctx, canalRedisPrefix+"*")
	defer ps.Close()

	log.Info().Msg("realtime: redis relay started")
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("realtime: redis relay shutting down")
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var msg Mensaje
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				log.Error().Err(err).Str("channel", m.Channel).Msg("realtime: invalid redis message")
				continue
			}
			msg.Grupo = strings.TrimPrefix(m.Channel, canalRedisPrefix)
			_ = b.hub.Publish(ctx, msg)
		}
	}
}
