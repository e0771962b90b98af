package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// PlaceBet registra uma aposta do caller cobrando amount + taxa.
func (e *Engine) PlaceBet(ctx context.Context, caller common.Address, marketID uint64, outcomeIndex int, amount *big.Int, token common.Address) (Bet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.placeBet(ctx, caller, marketID, outcomeIndex, amount, token, false)
}

// SimulateCrossChainCall é o ponto de entrada do relayer (somente owner):
// mesmas validações e efeitos de PlaceBet, mas a aposta e a origem dos fundos são de user.
func (e *Engine) SimulateCrossChainCall(ctx context.Context, caller common.Address, marketID uint64, amount *big.Int, outcomeIndex int, user, token common.Address) (Bet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isOwner(caller) {
		return Bet{}, fmt.Errorf("cross-chain call: %w", ErrUnauthorized)
	}
	if user == (common.Address{}) {
		return Bet{}, fmt.Errorf("cross-chain user: %w", ErrZeroAddress)
	}
	return e.placeBet(ctx, user, marketID, outcomeIndex, amount, token, true)
}

// placeBet exige e.mu travado. Nada é alterado antes da cobrança dar certo.
func (e *Engine) placeBet(ctx context.Context, bettor common.Address, marketID uint64, outcomeIndex int, amount *big.Int, token common.Address, relayed bool) (Bet, error) {
	m, err := e.marketLocked(marketID)
	if err != nil {
		return Bet{}, err
	}
	if m.resolved {
		return Bet{}, fmt.Errorf("market %d: %w", marketID, ErrAlreadyResolved)
	}
	now := e.now()
	if now >= m.resolutionTime {
		return Bet{}, fmt.Errorf("market %d closed at %d: %w", marketID, m.resolutionTime, ErrMarketExpired)
	}
	if outcomeIndex < 0 || outcomeIndex >= len(m.outcomes) {
		return Bet{}, fmt.Errorf("outcome %d: %w", outcomeIndex, ErrInvalidOutcome)
	}
	if amount == nil || amount.Sign() <= 0 {
		return Bet{}, ErrInvalidAmount
	}
	if token != m.asset {
		return Bet{}, fmt.Errorf("token %s, market asset %s: %w", token.Hex(), m.asset.Hex(), ErrAssetMismatch)
	}

	total := new(big.Int).Add(amount, e.cfg.BetFee)
	fromStake := false
	if st, ok := e.stakes[stakeKey{bettor, token}]; ok && st.Cmp(total) >= 0 {
		st.Sub(st, total)
		fromStake = true
	} else {
		if err := e.tokens.TransferFrom(ctx, token, e.cfg.Custody, bettor, e.cfg.Custody, total); err != nil {
			e.log.Debug("bet funding rejected", zap.Uint64("marketId", marketID), zap.String("user", bettor.Hex()), zap.Error(err))
			return Bet{}, transferError("collect stake", err)
		}
		e.credit(token, total)
	}

	fee := bucket(e.fees, token)
	fee.Add(fee, e.cfg.BetFee)
	m.pools[outcomeIndex].Add(m.pools[outcomeIndex], amount)

	bet := Bet{
		User:         bettor,
		Amount:       new(big.Int).Set(amount),
		OutcomeIndex: outcomeIndex,
		Token:        token,
		PlacedAt:     now,
		Relayed:      relayed,
	}
	m.bets = append(m.bets, bet)

	e.emit(ctx, events.BetPlaced{
		MarketID:     marketID,
		BetIndex:     len(m.bets) - 1,
		User:         bettor,
		Amount:       new(big.Int).Set(amount),
		Fee:          new(big.Int).Set(e.cfg.BetFee),
		OutcomeIndex: outcomeIndex,
		Token:        token,
		Relayed:      relayed,
		FromStake:    fromStake,
	})
	e.log.Info("bet placed",
		zap.Uint64("marketId", marketID),
		zap.String("user", bettor.Hex()),
		zap.String("amount", amount.String()),
		zap.Int("outcome", outcomeIndex),
		zap.Bool("relayed", relayed),
	)
	return bet.clone(), nil
}

// StakeTokens deposita saldo em custódia para apostas futuras sem nova transferência.
func (e *Engine) StakeTokens(ctx context.Context, caller common.Address, amount *big.Int, token common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if token == (common.Address{}) {
		return nil, fmt.Errorf("stake token: %w", ErrZeroAddress)
	}
	if err := e.tokens.TransferFrom(ctx, token, e.cfg.Custody, caller, e.cfg.Custody, amount); err != nil {
		return nil, transferError("stake", err)
	}
	e.credit(token, amount)
	st := bucket(e.stakes, stakeKey{caller, token})
	st.Add(st, amount)

	e.emit(ctx, events.TokensStaked{User: caller, Token: token, Amount: new(big.Int).Set(amount)})
	e.log.Info("tokens staked", zap.String("user", caller.Hex()), zap.String("amount", amount.String()))
	return new(big.Int).Set(st), nil
}

// WithdrawStake devolve saldo depositado e ainda não usado em apostas.
func (e *Engine) WithdrawStake(ctx context.Context, caller common.Address, amount *big.Int, token common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	st, ok := e.stakes[stakeKey{caller, token}]
	if !ok || st.Cmp(amount) < 0 {
		return nil, ErrInsufficientStake
	}
	if err := e.tokens.Transfer(ctx, token, e.cfg.Custody, caller, amount); err != nil {
		return nil, transferError("withdraw stake", err)
	}
	e.debit(token, amount)
	st.Sub(st, amount)

	e.emit(ctx, events.StakeWithdrawn{User: caller, Token: token, Amount: new(big.Int).Set(amount)})
	e.log.Info("stake withdrawn", zap.String("user", caller.Hex()), zap.String("amount", amount.String()))
	return new(big.Int).Set(st), nil
}

func (e *Engine) StakeOf(user, token common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.stakes[stakeKey{user, token}]; ok {
		return new(big.Int).Set(st)
	}
	return new(big.Int)
}
