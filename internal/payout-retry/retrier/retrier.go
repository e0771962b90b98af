package retrier

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-service/engine"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Markets é a operação retryPayout do market-service
type Markets interface {
	RetryPayout(ctx context.Context, marketID uint64, user common.Address) (*big.Int, error)
}

// Outcome é o destino final de um PayoutFailed
type Outcome string

const (
	OutcomePaid    Outcome = "paid"
	OutcomeSettled Outcome = "already_settled" // outro chamador já reenviou
	OutcomeDLQ     Outcome = "dlq"
	OutcomeSkipped Outcome = "skipped"
)

// DeadLetter é o que vai para o payout_retry_dlq
type DeadLetter struct {
	Envelope  events.Envelope `json:"envelope"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error"`
	FailedAt  time.Time       `json:"failed_at"`
}

// Processor consome market_events e reenvia os pagamentos recusados.
// Só PayoutFailed interessa; os demais eventos são confirmados sem ação.
type Processor struct {
	Log     *zap.Logger
	Reader  Reader
	Markets Markets
	DLQ     Writer

	Attempts int           // chamadas ao market-service por evento (default 5)
	Backoff  time.Duration // espera inicial, dobra a cada tentativa (default 1s)

	OnOutcome func(Outcome)
	OnError   func(string)
}

func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			p.errorAt("read")
			if err := sleep(ctx, p.backoff()); err != nil {
				return err
			}
			continue
		}

		p.Handle(ctx, m)
		if ctx.Err() != nil {
			// sem commit: o evento volta na próxima execução
			return ctx.Err()
		}

		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka commit failed", zap.Error(err))
			p.errorAt("commit")
		}
	}
}

// Handle trata uma mensagem e devolve o destino dado ao evento
func (p *Processor) Handle(ctx context.Context, m kafka.Message) Outcome {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		p.Log.Warn("invalid message", zap.Error(err), zap.Int64("offset", m.Offset))
		p.errorAt("decode")
		return p.outcome(OutcomeSkipped)
	}
	if env.Kind != events.KindPayoutFailed {
		return OutcomeSkipped
	}
	ev, err := env.Decode()
	if err != nil {
		p.Log.Warn("invalid payout event", zap.Error(err), zap.Uint64("seq", env.Seq))
		p.errorAt("decode")
		return p.outcome(OutcomeSkipped)
	}
	failed, ok := ev.(events.PayoutFailed)
	if !ok {
		return p.outcome(OutcomeSkipped)
	}
	log := p.Log.With(
		zap.Uint64("seq", env.Seq),
		zap.Uint64("marketId", failed.MarketID),
		zap.String("user", failed.User.Hex()),
	)

	attempts := p.attempts()
	wait := p.backoff()
	tried := 0
	var lastErr error
retry:
	for tried < attempts {
		tried++
		paid, err := p.Markets.RetryPayout(ctx, failed.MarketID, failed.User)
		switch {
		case err == nil:
			log.Info("payout retried", zap.String("amount", paid.String()), zap.Int("attempt", tried))
			return p.outcome(OutcomePaid)
		case errors.Is(err, engine.ErrNothingOwed):
			log.Info("payout already settled")
			return p.outcome(OutcomeSettled)
		case errors.Is(err, engine.ErrNotFound), errors.Is(err, engine.ErrValidation):
			// erro permanente: vai direto para a DLQ
			lastErr = err
			break retry
		}
		lastErr = err
		p.errorAt("retry")
		log.Warn("payout retry failed", zap.Int("attempt", tried), zap.Error(err))
		if tried == attempts {
			break
		}
		if err := sleep(ctx, wait); err != nil {
			return p.outcome(OutcomeSkipped)
		}
		wait *= 2
	}

	p.deadLetter(ctx, log, env, tried, lastErr)
	return p.outcome(OutcomeDLQ)
}

func (p *Processor) deadLetter(ctx context.Context, log *zap.Logger, env events.Envelope, attempts int, cause error) {
	dl := DeadLetter{Envelope: env, Attempts: attempts, FailedAt: time.Now().UTC()}
	if cause != nil {
		dl.LastError = cause.Error()
	}
	b, err := json.Marshal(dl)
	if err != nil {
		log.Error("dlq marshal failed", zap.Error(err))
		return
	}
	msg := kafka.Message{Key: []byte(strconv.FormatUint(env.Seq, 10)), Value: b, Time: dl.FailedAt}
	if err := p.DLQ.WriteMessages(ctx, msg); err != nil {
		log.Error("dlq publish failed", zap.Error(err))
		p.errorAt("dlq")
		return
	}
	log.Warn("payout sent to dlq", zap.NamedError("cause", cause))
}

func (p *Processor) outcome(o Outcome) Outcome {
	if p.OnOutcome != nil {
		p.OnOutcome(o)
	}
	return o
}

func (p *Processor) attempts() int {
	if p.Attempts <= 0 {
		return 5
	}
	return p.Attempts
}

func (p *Processor) backoff() time.Duration {
	if p.Backoff <= 0 {
		return time.Second
	}
	return p.Backoff
}

func (p *Processor) errorAt(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
