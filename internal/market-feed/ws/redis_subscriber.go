package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broadcaster recebe os eventos decodificados do Pub/Sub
type Broadcaster interface {
	Broadcast(MarketUpdate)
}

// StartRedisSubscriber escuta o canal do market-projector e repassa cada evento ao hub.
// Encerra a inscrição quando ctx termina.
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub Broadcaster) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				Dispatch(log, []byte(msg.Payload), hub)
			}
		}
	}()
}

// Dispatch decodifica uma mensagem do canal e a entrega ao hub
func Dispatch(log *zap.Logger, payload []byte, hub Broadcaster) {
	var upd MarketUpdate
	if err := json.Unmarshal(payload, &upd); err != nil {
		log.Warn("ws subscriber unmarshal error", zap.Error(err))
		return
	}
	hub.Broadcast(upd)
}
