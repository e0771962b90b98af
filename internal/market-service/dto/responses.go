package dto

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type MarketCountResponse struct {
	Count uint64 `json:"count"`
}

type OutcomesResponse struct {
	MarketID uint64   `json:"market_id"`
	Length   int      `json:"length"`
	Outcomes []string `json:"outcomes"`
}

type OutcomeResponse struct {
	MarketID uint64 `json:"market_id"`
	Index    int    `json:"index"`
	Label    string `json:"label"`
}

type StakeResponse struct {
	User   common.Address `json:"user"`
	Token  common.Address `json:"token"`
	Staked *big.Int       `json:"staked"`
}

type PendingPayoutResponse struct {
	MarketID uint64         `json:"market_id"`
	User     common.Address `json:"user"`
	Pending  *big.Int       `json:"pending"`
}

type RetryPayoutResponse struct {
	MarketID uint64         `json:"market_id"`
	User     common.Address `json:"user"`
	Paid     *big.Int       `json:"paid"`
}

type FeesResponse struct {
	Token    common.Address `json:"token"`
	Accrued  *big.Int       `json:"accrued"`
	Holdings *big.Int       `json:"holdings"`
}

type FeesWithdrawnResponse struct {
	Token  common.Address `json:"token"`
	To     common.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

type OwnerResponse struct {
	Owner common.Address `json:"owner"`
}

type ConfigResponse struct {
	Owner                common.Address `json:"owner"`
	Custody              common.Address `json:"custody"`
	BettingToken         common.Address `json:"betting_token"`
	BetFee               *big.Int       `json:"bet_fee"`
	ZeroWinnerPolicy     string         `json:"zero_winner_policy"`
	AllowEarlyResolution bool           `json:"allow_early_resolution"`
	OpenMarketCreation   bool           `json:"open_market_creation"`
}

type EventResponse struct {
	Seq      uint64       `json:"seq"`
	Kind     events.Kind  `json:"kind"`
	TsUnixMs int64        `json:"ts_unix_ms"`
	Event    events.Event `json:"event"`
}

func Event(r events.Record) EventResponse {
	return EventResponse{Seq: r.Seq, Kind: r.Event.Kind(), TsUnixMs: r.At.UnixMilli(), Event: r.Event}
}
