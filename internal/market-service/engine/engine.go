// Package engine implementa o registro de mercados e o motor de liquidação.
//
// Todos os entry points rodam sob um único mutex: cada chamada é uma transição
// de estado atômica e as chamadas ficam totalmente ordenadas. Transferências no
// token-service acontecem dentro da seção crítica, antes de qualquer mutação
// que dependa delas.
package engine

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// TokenService é o subconjunto do serviço de token (ERC-20) usado pelo engine.
type TokenService interface {
	Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *big.Int) error
}

// Sink recebe cada evento depois que a transição que o gerou foi aplicada.
type Sink interface {
	Emit(ctx context.Context, r events.Record)
}

// Config fixa as políticas do engine na inicialização.
type Config struct {
	Owner                common.Address // autoridade de resolução
	Custody              common.Address // conta que guarda os fundos
	BettingToken         common.Address // ativo padrão dos mercados
	BetFee               *big.Int       // taxa fixa por aposta
	ZeroWinnerPolicy     ZeroWinnerPolicy
	AllowEarlyResolution bool
	OpenMarketCreation   bool

	Now func() time.Time // relógio "da chain"; nil usa time.Now
}

type stakeKey struct {
	user, token common.Address
}

type Engine struct {
	mu sync.Mutex

	cfg    Config
	log    *zap.Logger
	tokens TokenService
	sinks  []Sink

	owner    common.Address
	markets  []*market
	stakes   map[stakeKey]*big.Int
	fees     map[common.Address]*big.Int
	holdings map[common.Address]*big.Int
	journal  []events.Record
}

func New(cfg Config, tokens TokenService, log *zap.Logger, sinks ...Sink) (*Engine, error) {
	switch {
	case tokens == nil:
		return nil, errors.New("engine: token service required")
	case cfg.Owner == (common.Address{}):
		return nil, errors.New("engine: owner address required")
	case cfg.Custody == (common.Address{}):
		return nil, errors.New("engine: custody address required")
	case cfg.BettingToken == (common.Address{}):
		return nil, errors.New("engine: betting token required")
	case cfg.BetFee == nil || cfg.BetFee.Sign() < 0:
		return nil, errors.New("engine: bet fee must be non-negative")
	}
	policy, err := ParseZeroWinnerPolicy(string(cfg.ZeroWinnerPolicy))
	if err != nil {
		return nil, err
	}
	cfg.ZeroWinnerPolicy = policy
	cfg.BetFee = new(big.Int).Set(cfg.BetFee)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		log:      log,
		tokens:   tokens,
		sinks:    sinks,
		owner:    cfg.Owner,
		stakes:   make(map[stakeKey]*big.Int),
		fees:     make(map[common.Address]*big.Int),
		holdings: make(map[common.Address]*big.Int),
	}, nil
}

// emit exige e.mu travado.
func (e *Engine) emit(ctx context.Context, ev events.Event) {
	rec := events.Record{Seq: uint64(len(e.journal)) + 1, At: e.cfg.Now(), Event: ev}
	e.journal = append(e.journal, rec)
	for _, s := range e.sinks {
		s.Emit(ctx, rec)
	}
}

// Events devolve os registros com Seq >= from, em ordem.
func (e *Engine) Events(from uint64) []events.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	if from == 0 {
		from = 1
	}
	if from > uint64(len(e.journal)) {
		return nil
	}
	return append([]events.Record(nil), e.journal[from-1:]...)
}

func (e *Engine) now() int64 { return e.cfg.Now().Unix() }

func (e *Engine) marketLocked(id uint64) (*market, error) {
	if id == 0 || id > uint64(len(e.markets)) {
		return nil, ErrMarketNotFound
	}
	return e.markets[id-1], nil
}

func (e *Engine) isOwner(caller common.Address) bool {
	return e.owner != (common.Address{}) && caller == e.owner
}

// bucket devolve (criando) o acumulador do mapa; exige e.mu travado.
func bucket[K comparable](m map[K]*big.Int, k K) *big.Int {
	v, ok := m[k]
	if !ok {
		v = new(big.Int)
		m[k] = v
	}
	return v
}

func (e *Engine) credit(token common.Address, amount *big.Int) {
	h := bucket(e.holdings, token)
	h.Add(h, amount)
}

func (e *Engine) debit(token common.Address, amount *big.Int) {
	h := bucket(e.holdings, token)
	h.Sub(h, amount)
}

func (e *Engine) BetFee() *big.Int             { return new(big.Int).Set(e.cfg.BetFee) }
func (e *Engine) BettingToken() common.Address { return e.cfg.BettingToken }
func (e *Engine) Custody() common.Address      { return e.cfg.Custody }

// Settings devolve a configuração efetiva (sem o relógio).
func (e *Engine) Settings() Config {
	cfg := e.cfg
	cfg.Now = nil
	cfg.BetFee = new(big.Int).Set(e.cfg.BetFee)
	e.mu.Lock()
	cfg.Owner = e.owner
	e.mu.Unlock()
	return cfg
}

// Holdings é quanto o engine acredita ter em custódia no token:
// stakes + taxas + pools abertos + residual + prêmios pendentes.
func (e *Engine) Holdings(token common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h, ok := e.holdings[token]; ok {
		return new(big.Int).Set(h)
	}
	return new(big.Int)
}
