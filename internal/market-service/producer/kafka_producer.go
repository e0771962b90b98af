package producer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// MessageWriter é o subconjunto do *kafka.Writer usado aqui.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publica cada registro do log do engine no tópico de eventos.
// A chave é o id do mercado, então a ordem por mercado é preservada na partição.
type KafkaPublisher struct {
	Log    *zap.Logger
	Writer MessageWriter
	Topic  string

	OnError func() // métricas
}

func NewKafkaPublisher(log *zap.Logger, w MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{Log: log, Writer: w, Topic: topic}
}

// Emit implementa engine.Sink. Falhas de publicação não desfazem a operação:
// o log do engine (GET /events) continua sendo a fonte para reprocessar.
func (p *KafkaPublisher) Emit(ctx context.Context, rec events.Record) {
	env, err := events.Wrap(rec)
	if err != nil {
		p.fail(rec, err)
		return
	}
	b, _ := json.Marshal(env)
	if err := p.Writer.WriteMessages(ctx, kafka.Message{Key: env.Key(), Value: b, Time: rec.At}); err != nil {
		p.fail(rec, err)
		return
	}
	p.Log.Debug("event published", zap.Uint64("seq", rec.Seq), zap.String("kind", string(env.Kind)))
}

func (p *KafkaPublisher) fail(rec events.Record, err error) {
	p.Log.Error("kafka publish failed",
		zap.String("topic", p.Topic),
		zap.Uint64("seq", rec.Seq),
		zap.String("kind", string(rec.Event.Kind())),
		zap.Error(err),
	)
	if p.OnError != nil {
		p.OnError()
	}
}
