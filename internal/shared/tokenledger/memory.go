package tokenledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/radieske/prediction-market-poc/pkg/contracts/erc20"
)

type holding struct {
	token, account common.Address
}

type grant struct {
	token, owner, spender common.Address
}

// Memory é um ledger ERC-20 multi-token em memória.
// Usado em testes e no modo TOKEN_MODE=memory do market-service.
type Memory struct {
	mu         sync.Mutex
	balances   map[holding]*big.Int
	allowances map[grant]*big.Int
	rejecting  map[common.Address]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		balances:   make(map[holding]*big.Int),
		allowances: make(map[grant]*big.Int),
		rejecting:  make(map[common.Address]struct{}),
	}
}

// Reject faz com que qualquer transferência para o endereço falhe (simula um destinatário quebrado).
func (m *Memory) Reject(account common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejecting[account] = struct{}{}
}

// Accept desfaz Reject.
func (m *Memory) Accept(account common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rejecting, account)
}

// SetRejecting é a forma com contexto usada pelo token-service.
func (m *Memory) SetRejecting(_ context.Context, account common.Address, reject bool) error {
	if reject {
		m.Reject(account)
	} else {
		m.Accept(account)
	}
	return nil
}

func (m *Memory) Mint(_ context.Context, token, to common.Address, amount *big.Int) (*big.Int, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if to == (common.Address{}) {
		return nil, erc20.ErrInvalidReceiver
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bal := m.balance(token, to)
	bal.Add(bal, amount)
	return new(big.Int).Set(bal), nil
}

func (m *Memory) BalanceOf(_ context.Context, token, account common.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.balance(token, account)), nil
}

func (m *Memory) Allowance(_ context.Context, token, owner, spender common.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.allowances[grant{token, owner, spender}]; ok {
		return new(big.Int).Set(a), nil
	}
	return new(big.Int), nil
}

func (m *Memory) Approve(_ context.Context, token, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("approve: %w: %v", erc20.ErrInvalidAmount, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowances[grant{token, owner, spender}] = new(big.Int).Set(amount)
	return nil
}

func (m *Memory) Transfer(_ context.Context, token, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.move(token, from, to, amount)
}

// TransferFrom consome a allowance que "from" concedeu a "spender".
func (m *Memory) TransferFrom(_ context.Context, token, spender, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	g := grant{token, from, spender}
	allowed, ok := m.allowances[g]
	if !ok || allowed.Cmp(amount) < 0 {
		return fmt.Errorf("transferFrom %s: %w", from.Hex(), erc20.ErrInsufficientAllowance)
	}
	if err := m.move(token, from, to, amount); err != nil {
		return err
	}
	allowed.Sub(allowed, amount)
	return nil
}

// move exige m.mu travado; não altera nada em caso de erro.
func (m *Memory) move(token, from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return erc20.ErrInvalidReceiver
	}
	if _, ok := m.rejecting[to]; ok {
		return fmt.Errorf("transfer to %s: %w", to.Hex(), erc20.ErrRecipientRejected)
	}
	src := m.balance(token, from)
	if src.Cmp(amount) < 0 {
		return fmt.Errorf("transfer from %s: %w", from.Hex(), erc20.ErrInsufficientBalance)
	}
	src.Sub(src, amount)
	dst := m.balance(token, to)
	dst.Add(dst, amount)
	return nil
}

func (m *Memory) balance(token, account common.Address) *big.Int {
	k := holding{token, account}
	b, ok := m.balances[k]
	if !ok {
		b = new(big.Int)
		m.balances[k] = b
	}
	return b
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: %v", erc20.ErrInvalidAmount, amount)
	}
	return nil
}
