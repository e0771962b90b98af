package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// Reader é o subconjunto do *kafka.Reader usado pelo processor (commit manual).
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Repo interface {
	Apply(ctx context.Context, env events.Envelope, ev events.Event) (bool, error)
}

type Cache interface {
	Invalidate(ctx context.Context, marketID uint64) error
}

// Processor consome market_events, projeta no Postgres e invalida o cache.
// O offset só é confirmado depois da persistência; reentregas são idempotentes por seq.
type Processor struct {
	Log    *zap.Logger
	Reader Reader
	Repo   Repo
	Cache  Cache

	Attempts int           // tentativas de persistência por mensagem (default 3)
	Backoff  time.Duration // espera entre tentativas (default 500ms)

	OnConsumed     func()                // métricas (counter++)
	OnPersist      func()                // métricas
	OnDuplicate    func()                // métricas
	OnInvalidated  func()                // métricas
	OnError        func(string)          // métricas por fase
	OnAfterPersist func(events.Envelope) // broadcast para o WS
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			p.errorAt("read")
			time.Sleep(p.backoff())
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		p.Handle(ctx, m)

		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka commit failed", zap.Error(err))
			p.errorAt("commit")
		}
	}
}

// Handle processa uma mensagem. Mensagens inválidas ou que esgotam as tentativas
// são descartadas com log; o log do market-service permite reprocessar.
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		p.Log.Warn("invalid message", zap.Error(err), zap.Int64("offset", m.Offset))
		p.errorAt("decode")
		return
	}
	ev, err := env.Decode()
	if err != nil {
		p.Log.Warn("unknown event", zap.Error(err), zap.Uint64("seq", env.Seq))
		p.errorAt("decode")
		return
	}

	applied, err := p.apply(ctx, env, ev)
	if err != nil {
		p.Log.Error("db apply failed, dropping event",
			zap.Uint64("seq", env.Seq),
			zap.String("kind", string(env.Kind)),
			zap.Error(err),
		)
		return
	}
	if !applied {
		p.Log.Debug("duplicate event", zap.Uint64("seq", env.Seq))
		if p.OnDuplicate != nil {
			p.OnDuplicate()
		}
		return
	}
	if p.OnPersist != nil {
		p.OnPersist()
	}

	// falha de cache não desfaz a persistência: a entrada expira pelo TTL
	if err := p.Cache.Invalidate(ctx, env.MarketID); err != nil {
		p.Log.Warn("redis invalidate failed", zap.Error(err), zap.Uint64("marketId", env.MarketID))
		p.errorAt("cache")
	} else if p.OnInvalidated != nil {
		p.OnInvalidated()
	}

	if p.OnAfterPersist != nil {
		p.OnAfterPersist(env)
	}
}

func (p *Processor) apply(ctx context.Context, env events.Envelope, ev events.Event) (bool, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	var err error
	for i := 0; i < attempts; i++ {
		var applied bool
		if applied, err = p.Repo.Apply(ctx, env, ev); err == nil {
			return applied, nil
		}
		p.errorAt("db_apply")
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		time.Sleep(time.Duration(i+1) * p.backoff())
	}
	return false, err
}

func (p *Processor) backoff() time.Duration {
	if p.Backoff <= 0 {
		return 500 * time.Millisecond
	}
	return p.Backoff
}

func (p *Processor) errorAt(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
