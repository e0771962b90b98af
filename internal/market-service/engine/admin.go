package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

func (e *Engine) Owner() common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

// TransferOwnership troca a autoridade de resolução.
func (e *Engine) TransferOwnership(ctx context.Context, caller, newOwner common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isOwner(caller) {
		return fmt.Errorf("transfer ownership: %w", ErrUnauthorized)
	}
	if newOwner == (common.Address{}) {
		return fmt.Errorf("new owner: %w", ErrZeroAddress)
	}
	e.setOwner(ctx, newOwner)
	return nil
}

// RenounceOwnership deixa o engine sem owner: resolução e funções admin ficam indisponíveis.
func (e *Engine) RenounceOwnership(ctx context.Context, caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isOwner(caller) {
		return fmt.Errorf("renounce ownership: %w", ErrUnauthorized)
	}
	e.setOwner(ctx, common.Address{})
	return nil
}

func (e *Engine) setOwner(ctx context.Context, next common.Address) {
	prev := e.owner
	e.owner = next
	e.emit(ctx, events.OwnershipTransferred{PreviousOwner: prev, NewOwner: next})
	e.log.Info("ownership transferred", zap.String("previous", prev.Hex()), zap.String("new", next.Hex()))
}

func (e *Engine) FeesAccrued(token common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if f, ok := e.fees[token]; ok {
		return new(big.Int).Set(f)
	}
	return new(big.Int)
}

// WithdrawFees transfere as taxas acumuladas do token para "to". Somente owner.
func (e *Engine) WithdrawFees(ctx context.Context, caller, token, to common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isOwner(caller) {
		return nil, fmt.Errorf("withdraw fees: %w", ErrUnauthorized)
	}
	if to == (common.Address{}) {
		return nil, fmt.Errorf("fee recipient: %w", ErrZeroAddress)
	}
	f, ok := e.fees[token]
	if !ok || f.Sign() == 0 {
		return nil, fmt.Errorf("fees in %s: %w", token.Hex(), ErrNothingOwed)
	}
	amount := new(big.Int).Set(f)
	if err := e.tokens.Transfer(ctx, token, e.cfg.Custody, to, amount); err != nil {
		return nil, transferError("withdraw fees", err)
	}
	f.SetInt64(0)
	e.debit(token, amount)

	e.emit(ctx, events.FeesWithdrawn{Token: token, To: to, Amount: new(big.Int).Set(amount)})
	e.log.Info("fees withdrawn", zap.String("token", token.Hex()), zap.String("to", to.Hex()), zap.String("amount", amount.String()))
	return amount, nil
}
