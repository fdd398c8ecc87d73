package presence

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"studyroom/internal/models"
)

// Channel carries room lifecycle events for other services to observe.
const Channel = "studyroom:presence"

// Publisher mirrors room membership changes onto a Redis channel.
// Delivery is best effort: a failed publish is logged and forgotten,
// the in-memory registry stays the only source of truth.
type Publisher struct {
	rdb *redis.Client
	log *zap.Logger
	ctx context.Context
}

// New returns nil when no Redis address is configured; the gateway
// treats a nil publisher as disabled.
func New(addr string, log *zap.Logger) *Publisher {
	if addr == "" {
		return nil
	}
	return &Publisher{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		log: log,
		ctx: context.Background(),
	}
}

func (p *Publisher) Publish(event models.PresenceEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("presence event marshal failed", zap.Error(err))
		return
	}
	if err := p.rdb.Publish(p.ctx, Channel, data).Err(); err != nil {
		p.log.Warn("presence publish failed", zap.String("type", event.Type), zap.Error(err))
	}
}

// Close releases the Redis client.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.rdb.Close()
}
