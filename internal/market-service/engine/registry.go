package engine

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// CreateMarket registra um novo mercado. Não movimenta tokens.
// Ativo zero significa o token de apostas padrão.
func (e *Engine) CreateMarket(ctx context.Context, caller common.Address, question string, outcomes []string, resolutionTime int64, asset common.Address) (Market, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.cfg.OpenMarketCreation && !e.isOwner(caller) {
		return Market{}, fmt.Errorf("create market: %w", ErrUnauthorized)
	}
	if strings.TrimSpace(question) == "" {
		return Market{}, ErrEmptyQuestion
	}
	if len(outcomes) < 2 {
		return Market{}, ErrTooFewOutcomes
	}
	for i, o := range outcomes {
		if strings.TrimSpace(o) == "" {
			return Market{}, fmt.Errorf("outcome %d: %w", i, ErrEmptyOutcome)
		}
	}
	if resolutionTime <= e.now() {
		return Market{}, ErrResolutionInPast
	}
	if asset == (common.Address{}) {
		asset = e.cfg.BettingToken
	}

	m := &market{
		id:             uint64(len(e.markets)) + 1,
		question:       question,
		outcomes:       append([]string(nil), outcomes...),
		resolutionTime: resolutionTime,
		asset:          asset,
		creator:        caller,
		pools:          make([]*big.Int, len(outcomes)),
		residual:       new(big.Int),
		pending:        make(map[common.Address]*big.Int),
	}
	for i := range m.pools {
		m.pools[i] = new(big.Int)
	}
	e.markets = append(e.markets, m)

	e.emit(ctx, events.MarketCreated{
		MarketID:       m.id,
		Question:       m.question,
		Outcomes:       append([]string(nil), m.outcomes...),
		ResolutionTime: m.resolutionTime,
		BettingAsset:   m.asset,
		Creator:        caller,
	})
	e.log.Info("market created",
		zap.Uint64("marketId", m.id),
		zap.Int("outcomes", len(m.outcomes)),
		zap.Int64("resolutionTime", m.resolutionTime),
		zap.String("asset", m.asset.Hex()),
	)
	return m.snapshot(), nil
}

func (e *Engine) MarketCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return uint64(len(e.markets))
}

func (e *Engine) Market(id uint64) (Market, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.marketLocked(id)
	if err != nil {
		return Market{}, err
	}
	return m.snapshot(), nil
}

// Markets lista todos os mercados em ordem de id.
func (e *Engine) Markets() []Market {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Market, 0, len(e.markets))
	for _, m := range e.markets {
		out = append(out, m.snapshot())
	}
	return out
}

func (e *Engine) OutcomesLength(id uint64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.marketLocked(id)
	if err != nil {
		return 0, err
	}
	return len(m.outcomes), nil
}

func (e *Engine) Outcome(id uint64, index int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.marketLocked(id)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(m.outcomes) {
		return "", fmt.Errorf("outcome %d of market %d: %w", index, id, ErrIndexOutOfRange)
	}
	return m.outcomes[index], nil
}

// Bet devolve a aposta na posição index (ordem de inserção).
func (e *Engine) Bet(id uint64, index int) (Bet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.marketLocked(id)
	if err != nil {
		return Bet{}, err
	}
	if index < 0 || index >= len(m.bets) {
		return Bet{}, fmt.Errorf("bet %d of market %d: %w", index, id, ErrIndexOutOfRange)
	}
	return m.bets[index].clone(), nil
}

func (e *Engine) Bets(id uint64) ([]Bet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.marketLocked(id)
	if err != nil {
		return nil, err
	}
	out := make([]Bet, len(m.bets))
	for i, b := range m.bets {
		out[i] = b.clone()
	}
	return out, nil
}
