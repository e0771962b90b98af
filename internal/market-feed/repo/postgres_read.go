package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/prediction-market-poc/internal/market-feed/dto"
)

// ErrNotFound indica que o mercado ainda não foi projetado
var ErrNotFound = errors.New("market not found")

type ReadRepo struct {
	DB *sql.DB
}

const marketColumns = `
	id, question, outcomes, outcome_pools::TEXT[], resolution_time, betting_asset, creator,
	bet_count, fees, resolved, winning_outcome, winning_pool, losing_pool, residual,
	created_at, resolved_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMarket(s scanner) (dto.Market, error) {
	var (
		m        dto.Market
		pools    []string
		winning  sql.NullInt64
		winPool  decimal.NullDecimal
		losePool decimal.NullDecimal
		resolved sql.NullTime
	)
	err := s.Scan(&m.ID, &m.Question, pq.Array(&m.Outcomes), pq.Array(&pools), &m.ResolutionTime,
		&m.BettingAsset, &m.Creator, &m.BetCount, &m.Fees, &m.Resolved, &winning, &winPool,
		&losePool, &m.Residual, &m.CreatedAt, &resolved)
	if err != nil {
		return dto.Market{}, err
	}
	m.OutcomePools = make([]decimal.Decimal, len(pools))
	for i, p := range pools {
		if m.OutcomePools[i], err = decimal.NewFromString(p); err != nil {
			return dto.Market{}, err
		}
	}
	if winning.Valid {
		w := int(winning.Int64)
		m.WinningOutcome = &w
	}
	if winPool.Valid {
		m.WinningPool = &winPool.Decimal
	}
	if losePool.Valid {
		m.LosingPool = &losePool.Decimal
	}
	if resolved.Valid {
		m.ResolvedAt = &resolved.Time
	}
	return m, nil
}

func (r *ReadRepo) ListMarkets(ctx context.Context) ([]dto.Market, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+marketColumns+` FROM markets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []dto.Market{}
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ReadRepo) GetMarket(ctx context.Context, id uint64) (dto.Market, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+marketColumns+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return dto.Market{}, ErrNotFound
	}
	return m, err
}

func (r *ReadRepo) ListBets(ctx context.Context, marketID uint64) ([]dto.Bet, error) {
	const q = `
		SELECT bet_index, user_address, amount, fee, outcome_index, token, relayed, from_stake, placed_at
		FROM bets
		WHERE market_id = $1
		ORDER BY bet_index;
	`
	rows, err := r.DB.QueryContext(ctx, q, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []dto.Bet{}
	for rows.Next() {
		var b dto.Bet
		if err := rows.Scan(&b.Index, &b.User, &b.Amount, &b.Fee, &b.OutcomeIndex, &b.Token, &b.Relayed, &b.FromStake, &b.PlacedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *ReadRepo) ListPayouts(ctx context.Context, marketID uint64) ([]dto.Payout, error) {
	const q = `
		SELECT seq, user_address, token, amount, refund, retry, status, COALESCE(reason, ''), created_at
		FROM payouts
		WHERE market_id = $1
		ORDER BY seq;
	`
	rows, err := r.DB.QueryContext(ctx, q, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []dto.Payout{}
	for rows.Next() {
		var p dto.Payout
		if err := rows.Scan(&p.Seq, &p.User, &p.Token, &p.Amount, &p.Refund, &p.Retry, &p.Status, &p.Reason, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
