package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Kind identifica a variante do evento no log e no envelope publicado.
type Kind string

const (
	KindMarketCreated        Kind = "MarketCreated"
	KindBetPlaced            Kind = "BetPlaced"
	KindMarketResolved       Kind = "MarketResolved"
	KindOwnershipTransferred Kind = "OwnershipTransferred"
	KindTokensStaked         Kind = "TokensStaked"
	KindStakeWithdrawn       Kind = "StakeWithdrawn"
	KindPayoutSent           Kind = "PayoutSent"
	KindPayoutFailed         Kind = "PayoutFailed"
	KindFeesWithdrawn        Kind = "FeesWithdrawn"
)

// Event é o conjunto fechado de eventos emitidos pelo engine de mercados.
type Event interface {
	Kind() Kind
}

// Scoped é implementado pelos eventos que pertencem a um mercado.
type Scoped interface {
	Market() uint64
}

type MarketCreated struct {
	MarketID       uint64         `json:"market_id"`
	Question       string         `json:"question"`
	Outcomes       []string       `json:"outcomes"`
	ResolutionTime int64          `json:"resolution_time"`
	BettingAsset   common.Address `json:"betting_asset"`
	Creator        common.Address `json:"creator"`
}

type BetPlaced struct {
	MarketID     uint64         `json:"market_id"`
	BetIndex     int            `json:"bet_index"`
	User         common.Address `json:"user"`
	Amount       *big.Int       `json:"amount"`
	Fee          *big.Int       `json:"fee"`
	OutcomeIndex int            `json:"outcome_index"`
	Token        common.Address `json:"token"`
	Relayed      bool           `json:"relayed"`
	FromStake    bool           `json:"from_stake"`
}

type MarketResolved struct {
	MarketID       uint64   `json:"market_id"`
	WinningOutcome int      `json:"winning_outcome"`
	WinningPool    *big.Int `json:"winning_pool"`
	LosingPool     *big.Int `json:"losing_pool"`
	Residual       *big.Int `json:"residual"`
}

type OwnershipTransferred struct {
	PreviousOwner common.Address `json:"previous_owner"`
	NewOwner      common.Address `json:"new_owner"`
}

type TokensStaked struct {
	User   common.Address `json:"user"`
	Token  common.Address `json:"token"`
	Amount *big.Int       `json:"amount"`
}

type StakeWithdrawn struct {
	User   common.Address `json:"user"`
	Token  common.Address `json:"token"`
	Amount *big.Int       `json:"amount"`
}

// PayoutSent cobre prêmios, reembolsos (Refund=true) e reprocessamentos.
type PayoutSent struct {
	MarketID uint64         `json:"market_id"`
	User     common.Address `json:"user"`
	Token    common.Address `json:"token"`
	Amount   *big.Int       `json:"amount"`
	Refund   bool           `json:"refund"`
	Retry    bool           `json:"retry"`
}

// PayoutFailed registra uma transferência recusada; o valor fica pendente para retryPayout.
type PayoutFailed struct {
	MarketID uint64         `json:"market_id"`
	User     common.Address `json:"user"`
	Token    common.Address `json:"token"`
	Amount   *big.Int       `json:"amount"`
	Refund   bool           `json:"refund"`
	Reason   string         `json:"reason"`
}

type FeesWithdrawn struct {
	Token  common.Address `json:"token"`
	To     common.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

func (MarketCreated) Kind() Kind        { return KindMarketCreated }
func (BetPlaced) Kind() Kind            { return KindBetPlaced }
func (MarketResolved) Kind() Kind       { return KindMarketResolved }
func (OwnershipTransferred) Kind() Kind { return KindOwnershipTransferred }
func (TokensStaked) Kind() Kind         { return KindTokensStaked }
func (StakeWithdrawn) Kind() Kind       { return KindStakeWithdrawn }
func (PayoutSent) Kind() Kind           { return KindPayoutSent }
func (PayoutFailed) Kind() Kind         { return KindPayoutFailed }
func (FeesWithdrawn) Kind() Kind        { return KindFeesWithdrawn }

func (e MarketCreated) Market() uint64  { return e.MarketID }
func (e BetPlaced) Market() uint64      { return e.MarketID }
func (e MarketResolved) Market() uint64 { return e.MarketID }
func (e PayoutSent) Market() uint64     { return e.MarketID }
func (e PayoutFailed) Market() uint64   { return e.MarketID }
