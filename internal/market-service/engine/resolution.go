package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// ResolveMarket fixa o resultado (uma única vez) e distribui os prêmios.
// Falha de transferência para um apostador não interrompe os demais: o valor
// fica pendente para RetryPayout.
func (e *Engine) ResolveMarket(ctx context.Context, caller common.Address, marketID uint64, winning int) (Resolution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isOwner(caller) {
		return Resolution{}, fmt.Errorf("resolve market %d: %w", marketID, ErrUnauthorized)
	}
	m, err := e.marketLocked(marketID)
	if err != nil {
		return Resolution{}, err
	}
	if m.resolved {
		return Resolution{}, fmt.Errorf("market %d: %w", marketID, ErrAlreadyResolved)
	}
	if winning < 0 || winning >= len(m.outcomes) {
		return Resolution{}, fmt.Errorf("winning outcome %d: %w", winning, ErrInvalidOutcome)
	}
	now := e.now()
	if !e.cfg.AllowEarlyResolution && now < m.resolutionTime {
		return Resolution{}, fmt.Errorf("market %d resolves at %d: %w", marketID, m.resolutionTime, ErrMarketNotYetExpired)
	}

	m.resolved = true
	m.winning = winning
	m.resolvedAt = now

	plan := Settle(m.bets, winning, e.cfg.ZeroWinnerPolicy)
	m.residual.Add(m.residual, plan.Residual)

	e.emit(ctx, events.MarketResolved{
		MarketID:       marketID,
		WinningOutcome: winning,
		WinningPool:    new(big.Int).Set(plan.WinningPool),
		LosingPool:     new(big.Int).Set(plan.LosingPool),
		Residual:       new(big.Int).Set(plan.Residual),
	})

	res := Resolution{
		MarketID:       marketID,
		WinningOutcome: winning,
		WinningPool:    plan.WinningPool,
		LosingPool:     plan.LosingPool,
		Residual:       plan.Residual,
	}
	for _, p := range plan.Payouts {
		if err := e.tokens.Transfer(ctx, m.asset, e.cfg.Custody, p.User, p.Amount); err != nil {
			owed := bucket(m.pending, p.User)
			owed.Add(owed, p.Amount)
			p.Reason = err.Error()
			res.Failed = append(res.Failed, p)
			e.emit(ctx, events.PayoutFailed{
				MarketID: marketID,
				User:     p.User,
				Token:    m.asset,
				Amount:   new(big.Int).Set(p.Amount),
				Refund:   p.Refund,
				Reason:   p.Reason,
			})
			e.log.Warn("payout failed",
				zap.Uint64("marketId", marketID),
				zap.String("user", p.User.Hex()),
				zap.String("amount", p.Amount.String()),
				zap.Error(err),
			)
			continue
		}
		e.debit(m.asset, p.Amount)
		res.Paid = append(res.Paid, p)
		e.emit(ctx, events.PayoutSent{
			MarketID: marketID,
			User:     p.User,
			Token:    m.asset,
			Amount:   new(big.Int).Set(p.Amount),
			Refund:   p.Refund,
		})
	}

	e.log.Info("market resolved",
		zap.Uint64("marketId", marketID),
		zap.Int("winningOutcome", winning),
		zap.String("winningPool", plan.WinningPool.String()),
		zap.String("losingPool", plan.LosingPool.String()),
		zap.Int("paid", len(res.Paid)),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}

// PendingPayout devolve quanto o mercado ainda deve ao usuário.
func (e *Engine) PendingPayout(marketID uint64, user common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.marketLocked(marketID)
	if err != nil {
		return nil, err
	}
	if owed, ok := m.pending[user]; ok {
		return new(big.Int).Set(owed), nil
	}
	return new(big.Int), nil
}

// RetryPayout tenta de novo a transferência pendente. Qualquer um pode chamar;
// o destino é sempre o próprio apostador.
func (e *Engine) RetryPayout(ctx context.Context, marketID uint64, user common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.marketLocked(marketID)
	if err != nil {
		return nil, err
	}
	owed, ok := m.pending[user]
	if !ok || owed.Sign() == 0 {
		return nil, fmt.Errorf("market %d, user %s: %w", marketID, user.Hex(), ErrNothingOwed)
	}
	if err := e.tokens.Transfer(ctx, m.asset, e.cfg.Custody, user, owed); err != nil {
		return nil, transferError("retry payout", err)
	}
	delete(m.pending, user)
	e.debit(m.asset, owed)

	e.emit(ctx, events.PayoutSent{
		MarketID: marketID,
		User:     user,
		Token:    m.asset,
		Amount:   new(big.Int).Set(owed),
		Retry:    true,
	})
	e.log.Info("payout retried", zap.Uint64("marketId", marketID), zap.String("user", user.Hex()), zap.String("amount", owed.String()))
	return owed, nil
}
