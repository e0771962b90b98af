package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Record é uma entrada do log do engine: sequência global, horário e evento tipado.
type Record struct {
	Seq   uint64
	At    time.Time
	Event Event
}

// Envelope é o formato publicado no tópico "market_events".
type Envelope struct {
	ID       string          `json:"id"`
	Seq      uint64          `json:"seq"`
	Kind     Kind            `json:"kind"`
	MarketID uint64          `json:"market_id,omitempty"`
	TsUnixMs int64           `json:"ts_unix_ms"`
	Payload  json.RawMessage `json:"payload"`
}

// Wrap serializa o evento do registro dentro de um envelope.
func Wrap(r Record) (Envelope, error) {
	if r.Event == nil {
		return Envelope{}, fmt.Errorf("wrap seq %d: nil event", r.Seq)
	}
	payload, err := json.Marshal(r.Event)
	if err != nil {
		return Envelope{}, fmt.Errorf("wrap %s: %w", r.Event.Kind(), err)
	}
	env := Envelope{
		ID:       uuid.NewString(),
		Seq:      r.Seq,
		Kind:     r.Event.Kind(),
		TsUnixMs: r.At.UnixMilli(),
		Payload:  payload,
	}
	if s, ok := r.Event.(Scoped); ok {
		env.MarketID = s.Market()
	}
	return env, nil
}

// Key é a chave de partição Kafka: eventos do mesmo mercado ficam na mesma partição.
func (e Envelope) Key() []byte {
	if e.MarketID == 0 {
		return []byte("global")
	}
	return []byte(strconv.FormatUint(e.MarketID, 10))
}

// Decode devolve a variante tipada contida no envelope.
func (e Envelope) Decode() (Event, error) {
	var ev Event
	switch e.Kind {
	case KindMarketCreated:
		ev = &MarketCreated{}
	case KindBetPlaced:
		ev = &BetPlaced{}
	case KindMarketResolved:
		ev = &MarketResolved{}
	case KindOwnershipTransferred:
		ev = &OwnershipTransferred{}
	case KindTokensStaked:
		ev = &TokensStaked{}
	case KindStakeWithdrawn:
		ev = &StakeWithdrawn{}
	case KindPayoutSent:
		ev = &PayoutSent{}
	case KindPayoutFailed:
		ev = &PayoutFailed{}
	case KindFeesWithdrawn:
		ev = &FeesWithdrawn{}
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if err := json.Unmarshal(e.Payload, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.Kind, err)
	}
	return deref(ev), nil
}

// deref devolve o valor (não o ponteiro) para que type switches usem os tipos de valor.
func deref(ev Event) Event {
	switch v := ev.(type) {
	case *MarketCreated:
		return *v
	case *BetPlaced:
		return *v
	case *MarketResolved:
		return *v
	case *OwnershipTransferred:
		return *v
	case *TokensStaked:
		return *v
	case *StakeWithdrawn:
		return *v
	case *PayoutSent:
		return *v
	case *PayoutFailed:
		return *v
	case *FeesWithdrawn:
		return *v
	}
	return ev
}
