package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/prediction-market-poc/pkg/contracts/erc20"
)

// Postgres implementa o ledger ERC-20 multi-token em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Operações gravadas no ledger
const (
	opMint         = "MINT"
	opTransfer     = "TRANSFER"
	opTransferFrom = "TRANSFER_FROM"
)

// key normaliza o endereço para a coluna TEXT (minúsculo, com 0x)
func key(a common.Address) string { return strings.ToLower(a.Hex()) }

func wei(v *big.Int) decimal.Decimal { return decimal.NewFromBigInt(v, 0) }

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: %v", erc20.ErrInvalidAmount, amount)
	}
	return nil
}

func (p *Postgres) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	var bal decimal.Decimal
	err := p.db.QueryRowContext(ctx, `SELECT balance FROM token_balances WHERE token=$1 AND account=$2`,
		key(token), key(account)).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return bal.BigInt(), nil
}

func (p *Postgres) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	var amt decimal.Decimal
	err := p.db.QueryRowContext(ctx, `SELECT amount FROM token_allowances WHERE token=$1 AND owner=$2 AND spender=$3`,
		key(token), key(owner), key(spender)).Scan(&amt)
	if errors.Is(err, sql.ErrNoRows) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return amt.BigInt(), nil
}

// Approve sobrescreve a allowance (semântica ERC-20)
func (p *Postgres) Approve(ctx context.Context, token, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("approve: %w: %v", erc20.ErrInvalidAmount, amount)
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO token_allowances(token, owner, spender, amount) VALUES($1,$2,$3,$4)
		ON CONFLICT (token, owner, spender) DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()`,
		key(token), key(owner), key(spender), wei(amount))
	return err
}

// Mint credita saldo novo (faucet de dev) e registra no ledger
func (p *Postgres) Mint(ctx context.Context, token, to common.Address, amount *big.Int) (*big.Int, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if to == (common.Address{}) {
		return nil, erc20.ErrInvalidReceiver
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var bal decimal.Decimal
	if err = tx.QueryRowContext(ctx, `
		INSERT INTO token_balances(token, account, balance) VALUES($1,$2,$3)
		ON CONFLICT (token, account) DO UPDATE
		SET balance = token_balances.balance + EXCLUDED.balance, version = token_balances.version + 1, updated_at = now()
		RETURNING balance`, key(token), key(to), wei(amount)).Scan(&bal); err != nil {
		return nil, err
	}
	if err = insertLedger(ctx, tx, token, opMint, nil, to, nil, amount); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return bal.BigInt(), nil
}

func (p *Postgres) Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = move(ctx, tx, token, from, to, amount); err != nil {
		return err
	}
	if err = insertLedger(ctx, tx, token, opTransfer, &from, to, nil, amount); err != nil {
		return err
	}
	return tx.Commit()
}

// TransferFrom consome a allowance que "from" concedeu a spender, na mesma transação do débito
func (p *Postgres) TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var allowed decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		SELECT amount FROM token_allowances WHERE token=$1 AND owner=$2 AND spender=$3 FOR UPDATE`,
		key(token), key(from), key(spender)).Scan(&allowed)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && allowed.BigInt().Cmp(amount) < 0) {
		return fmt.Errorf("transferFrom %s: %w", from.Hex(), erc20.ErrInsufficientAllowance)
	}
	if err != nil {
		return err
	}

	if err = move(ctx, tx, token, from, to, amount); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		UPDATE token_allowances SET amount = amount - $1, updated_at = now()
		WHERE token=$2 AND owner=$3 AND spender=$4`,
		wei(amount), key(token), key(from), key(spender)); err != nil {
		return err
	}
	if err = insertLedger(ctx, tx, token, opTransferFrom, &from, to, &spender, amount); err != nil {
		return err
	}
	return tx.Commit()
}

// SetRejecting marca/desmarca uma conta que recusa recebimentos
func (p *Postgres) SetRejecting(ctx context.Context, account common.Address, reject bool) error {
	var err error
	if reject {
		_, err = p.db.ExecContext(ctx, `INSERT INTO token_rejecting_accounts(account) VALUES($1) ON CONFLICT DO NOTHING`, key(account))
	} else {
		_, err = p.db.ExecContext(ctx, `DELETE FROM token_rejecting_accounts WHERE account=$1`, key(account))
	}
	return err
}

// move debita "from" e credita "to" com lock pessimista nas duas linhas.
// As linhas são travadas em ordem de conta para evitar deadlock entre transferências cruzadas.
func move(ctx context.Context, tx *sql.Tx, token, from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return erc20.ErrInvalidReceiver
	}
	var rejecting bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM token_rejecting_accounts WHERE account=$1)`, key(to)).Scan(&rejecting); err != nil {
		return err
	}
	if rejecting {
		return fmt.Errorf("transfer to %s: %w", to.Hex(), erc20.ErrRecipientRejected)
	}

	accounts := []string{key(from), key(to)}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO token_balances(token, account) SELECT $1, unnest($2::text[])
		ON CONFLICT (token, account) DO NOTHING`, key(token), pq.Array(accounts)); err != nil {
		return err
	}
	rows, err := tx.QueryContext(ctx, `
		SELECT account, balance FROM token_balances
		WHERE token=$1 AND account = ANY($2) ORDER BY account FOR UPDATE`, key(token), pq.Array(accounts))
	if err != nil {
		return err
	}
	balances := map[string]decimal.Decimal{}
	for rows.Next() {
		var acc string
		var bal decimal.Decimal
		if err := rows.Scan(&acc, &bal); err != nil {
			rows.Close()
			return err
		}
		balances[acc] = bal
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if balances[key(from)].BigInt().Cmp(amount) < 0 {
		return fmt.Errorf("transfer from %s: %w", from.Hex(), erc20.ErrInsufficientBalance)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE token_balances SET balance = balance - $1, version = version + 1, updated_at = now()
		WHERE token=$2 AND account=$3`, wei(amount), key(token), key(from)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE token_balances SET balance = balance + $1, version = version + 1, updated_at = now()
		WHERE token=$2 AND account=$3`, wei(amount), key(token), key(to)); err != nil {
		return err
	}
	return nil
}

func insertLedger(ctx context.Context, tx *sql.Tx, token common.Address, op string, from *common.Address, to common.Address, spender *common.Address, amount *big.Int) error {
	var fromCol, spenderCol sql.NullString
	if from != nil {
		fromCol = sql.NullString{String: key(*from), Valid: true}
	}
	if spender != nil {
		spenderCol = sql.NullString{String: key(*spender), Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO token_ledger(id, token, operation, from_account, to_account, spender, amount)
		VALUES($1,$2,$3,$4,$5,$6,$7)`,
		uuid.New().String(), key(token), op, fromCol, key(to), spenderCol, wei(amount))
	return err
}
