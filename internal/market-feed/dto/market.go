package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market é o snapshot de um mercado servido ao front-end
type Market struct {
	ID             uint64            `json:"id"`
	Question       string            `json:"question"`
	Outcomes       []string          `json:"outcomes"`
	OutcomePools   []decimal.Decimal `json:"outcomePools"`
	ResolutionTime int64             `json:"resolutionTime"`
	BettingAsset   string            `json:"bettingAsset"`
	Creator        string            `json:"creator"`
	BetCount       int               `json:"betCount"`
	Fees           decimal.Decimal   `json:"fees"`
	Resolved       bool              `json:"resolved"`
	WinningOutcome *int              `json:"winningOutcome,omitempty"`
	WinningPool    *decimal.Decimal  `json:"winningPool,omitempty"`
	LosingPool     *decimal.Decimal  `json:"losingPool,omitempty"`
	Residual       decimal.Decimal   `json:"residual"`
	CreatedAt      time.Time         `json:"createdAt"`
	ResolvedAt     *time.Time        `json:"resolvedAt,omitempty"`
}

// TotalPool soma os pools de todos os resultados
func (m Market) TotalPool() decimal.Decimal {
	total := decimal.Zero
	for _, p := range m.OutcomePools {
		total = total.Add(p)
	}
	return total
}

type Bet struct {
	Index        int             `json:"index"`
	User         string          `json:"user"`
	Amount       decimal.Decimal `json:"amount"`
	Fee          decimal.Decimal `json:"fee"`
	OutcomeIndex int             `json:"outcomeIndex"`
	Token        string          `json:"token"`
	Relayed      bool            `json:"relayed"`
	FromStake    bool            `json:"fromStake"`
	PlacedAt     time.Time       `json:"placedAt"`
}

type Payout struct {
	Seq       uint64          `json:"seq"`
	User      string          `json:"user"`
	Token     string          `json:"token"`
	Amount    decimal.Decimal `json:"amount"`
	Refund    bool            `json:"refund"`
	Retry     bool            `json:"retry"`
	Status    string          `json:"status"`
	Reason    string          `json:"reason,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
