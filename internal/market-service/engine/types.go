package engine

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroWinnerPolicy define o destino do pool quando ninguém apostou no resultado vencedor.
type ZeroWinnerPolicy string

const (
	// ZeroWinnerRetain mantém as apostas perdedoras em custódia (residual do mercado).
	ZeroWinnerRetain ZeroWinnerPolicy = "retain"
	// ZeroWinnerRefund devolve a cada apostador o valor apostado (sem a taxa).
	ZeroWinnerRefund ZeroWinnerPolicy = "refund"
)

func ParseZeroWinnerPolicy(s string) (ZeroWinnerPolicy, error) {
	switch p := ZeroWinnerPolicy(s); p {
	case ZeroWinnerRetain, ZeroWinnerRefund:
		return p, nil
	case "":
		return ZeroWinnerRetain, nil
	}
	return "", fmt.Errorf("unknown zero-winner policy %q", s)
}

// Market é a visão somente-leitura de um mercado.
type Market struct {
	ID             uint64         `json:"id"`
	Question       string         `json:"question"`
	Outcomes       []string       `json:"outcomes"`
	ResolutionTime int64          `json:"resolution_time"`
	Resolved       bool           `json:"resolved"`
	WinningOutcome int            `json:"winning_outcome"`
	BettingAsset   common.Address `json:"betting_asset"`
	Creator        common.Address `json:"creator"`
	BetCount       int            `json:"bet_count"`
	OutcomePools   []*big.Int     `json:"outcome_pools"`
	Residual       *big.Int       `json:"residual"`
	ResolvedAt     int64          `json:"resolved_at,omitempty"`
}

// Bet é a visão somente-leitura de uma aposta.
type Bet struct {
	User         common.Address `json:"user"`
	Amount       *big.Int       `json:"amount"`
	OutcomeIndex int            `json:"outcome_index"`
	Token        common.Address `json:"token"`
	PlacedAt     int64          `json:"placed_at"`
	Relayed      bool           `json:"relayed"`
}

// Resolution resume o resultado de resolveMarket.
type Resolution struct {
	MarketID       uint64   `json:"market_id"`
	WinningOutcome int      `json:"winning_outcome"`
	WinningPool    *big.Int `json:"winning_pool"`
	LosingPool     *big.Int `json:"losing_pool"`
	Residual       *big.Int `json:"residual"`
	Paid           []Payout `json:"paid"`
	Failed         []Payout `json:"failed"`
}

// market é o registro interno; só é acessado com Engine.mu travado.
type market struct {
	id             uint64
	question       string
	outcomes       []string
	resolutionTime int64
	resolved       bool
	winning        int
	asset          common.Address
	creator        common.Address
	bets           []Bet
	pools          []*big.Int
	residual       *big.Int
	resolvedAt     int64
	pending        map[common.Address]*big.Int
}

func (m *market) snapshot() Market {
	pools := make([]*big.Int, len(m.pools))
	for i, p := range m.pools {
		pools[i] = new(big.Int).Set(p)
	}
	return Market{
		ID:             m.id,
		Question:       m.question,
		Outcomes:       append([]string(nil), m.outcomes...),
		ResolutionTime: m.resolutionTime,
		Resolved:       m.resolved,
		WinningOutcome: m.winning,
		BettingAsset:   m.asset,
		Creator:        m.creator,
		BetCount:       len(m.bets),
		OutcomePools:   pools,
		Residual:       new(big.Int).Set(m.residual),
		ResolvedAt:     m.resolvedAt,
	}
}

func (b Bet) clone() Bet {
	b.Amount = new(big.Int).Set(b.Amount)
	return b
}
