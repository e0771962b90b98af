package repository

import (
	"context"
	"database/sql"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// Status de um pagamento no modelo de leitura
const (
	PayoutSent    = "SENT"
	PayoutFailed  = "FAILED"
	PayoutRetried = "RETRIED"
)

// PostgresRepo projeta os eventos do engine em tabelas consultáveis
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

func addr(a common.Address) string { return strings.ToLower(a.Hex()) }

func wei(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, 0)
}

// Apply grava o envelope e aplica o evento numa única transação.
// Reentregas (mesmo seq) são ignoradas e retornam applied=false.
func (r *PostgresRepo) Apply(ctx context.Context, env events.Envelope, ev events.Event) (applied bool, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var marketID sql.NullInt64
	if env.MarketID != 0 {
		marketID = sql.NullInt64{Int64: int64(env.MarketID), Valid: true}
	}
	at := time.UnixMilli(env.TsUnixMs).UTC()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO market_events(seq, id, kind, market_id, payload, emitted_at)
		VALUES($1,$2,$3,$4,$5,$6)
		ON CONFLICT (seq) DO NOTHING`,
		env.Seq, env.ID, string(env.Kind), marketID, []byte(env.Payload), at)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	if err := project(ctx, tx, env.Seq, at, ev); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func project(ctx context.Context, tx *sql.Tx, seq uint64, at time.Time, ev events.Event) error {
	var err error
	switch e := ev.(type) {
	case events.MarketCreated:
		pools := make([]string, len(e.Outcomes))
		for i := range pools {
			pools[i] = "0"
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO markets(id, question, outcomes, resolution_time, betting_asset, creator, outcome_pools, created_at)
			VALUES($1,$2,$3,$4,$5,$6,$7::numeric[],$8)`,
			e.MarketID, e.Question, pq.Array(e.Outcomes), e.ResolutionTime, addr(e.BettingAsset), addr(e.Creator), pq.Array(pools), at)

	case events.BetPlaced:
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO bets(market_id, bet_index, user_address, amount, fee, outcome_index, token, relayed, from_stake, placed_at)
			VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			e.MarketID, e.BetIndex, addr(e.User), wei(e.Amount), wei(e.Fee), e.OutcomeIndex, addr(e.Token), e.Relayed, e.FromStake, at); err != nil {
			return err
		}
		// arrays do Postgres começam em 1
		if _, err = tx.ExecContext(ctx, `
			UPDATE markets SET bet_count = bet_count + 1,
			  outcome_pools[$2] = outcome_pools[$2] + $3,
			  fees = fees + $4
			WHERE id = $1`,
			e.MarketID, e.OutcomeIndex+1, wei(e.Amount), wei(e.Fee)); err != nil {
			return err
		}
		if e.FromStake {
			total := new(big.Int).Add(e.Amount, e.Fee)
			err = adjustStake(ctx, tx, e.User, e.Token, wei(total).Neg(), at)
		}

	case events.MarketResolved:
		_, err = tx.ExecContext(ctx, `
			UPDATE markets SET resolved = true, winning_outcome = $2, winning_pool = $3, losing_pool = $4,
			  residual = residual + $5, resolved_at = $6
			WHERE id = $1`,
			e.MarketID, e.WinningOutcome, wei(e.WinningPool), wei(e.LosingPool), wei(e.Residual), at)

	case events.PayoutSent:
		if e.Retry {
			if _, err = tx.ExecContext(ctx, `
				UPDATE payouts SET status = $3 WHERE market_id = $1 AND user_address = $2 AND status = $4`,
				e.MarketID, addr(e.User), PayoutRetried, PayoutFailed); err != nil {
				return err
			}
		}
		err = insertPayout(ctx, tx, seq, e.MarketID, e.User, e.Token, e.Amount, e.Refund, e.Retry, PayoutSent, "", at)

	case events.PayoutFailed:
		err = insertPayout(ctx, tx, seq, e.MarketID, e.User, e.Token, e.Amount, e.Refund, false, PayoutFailed, e.Reason, at)

	case events.TokensStaked:
		err = adjustStake(ctx, tx, e.User, e.Token, wei(e.Amount), at)

	case events.StakeWithdrawn:
		err = adjustStake(ctx, tx, e.User, e.Token, wei(e.Amount).Neg(), at)

	case events.OwnershipTransferred:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO market_admin(id, owner, updated_at) VALUES(1,$1,$2)
			ON CONFLICT (id) DO UPDATE SET owner = EXCLUDED.owner, updated_at = EXCLUDED.updated_at`,
			addr(e.NewOwner), at)

	case events.FeesWithdrawn:
		// só fica no log de eventos
	}
	return err
}

func insertPayout(ctx context.Context, tx *sql.Tx, seq, marketID uint64, user, token common.Address, amount *big.Int, refund, retry bool, status, reason string, at time.Time) error {
	var reasonCol sql.NullString
	if reason != "" {
		reasonCol = sql.NullString{String: reason, Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO payouts(seq, market_id, user_address, token, amount, refund, retry, status, reason, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		seq, marketID, addr(user), addr(token), wei(amount), refund, retry, status, reasonCol, at)
	return err
}

func adjustStake(ctx context.Context, tx *sql.Tx, user, token common.Address, delta decimal.Decimal, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO stakes(user_address, token, amount, updated_at) VALUES($1,$2,$3,$4)
		ON CONFLICT (user_address, token) DO UPDATE SET amount = stakes.amount + EXCLUDED.amount, updated_at = EXCLUDED.updated_at`,
		addr(user), addr(token), delta, at)
	return err
}
