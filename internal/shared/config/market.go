package config

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// DefaultBetFeeWei é 0.01 ether.
const DefaultBetFeeWei = "10000000000000000"

// RawMarketSettings guarda as variáveis do engine ainda como texto.
type RawMarketSettings struct {
	Owner                string
	Custody              string
	BettingToken         string
	BetFeeWei            string
	ZeroWinnerPolicy     string
	AllowEarlyResolution string
	OpenMarketCreation   string
}

// MarketSettings são as políticas do engine já convertidas.
type MarketSettings struct {
	Owner                common.Address
	Custody              common.Address
	BettingToken         common.Address
	BetFee               *big.Int
	ZeroWinnerPolicy     string
	AllowEarlyResolution bool
	OpenMarketCreation   bool
}

// Parse valida endereços e valores. Owner, custódia e token são obrigatórios.
func (r RawMarketSettings) Parse() (MarketSettings, error) {
	var out MarketSettings
	var err error

	if out.Owner, err = parseAddress("MARKET_OWNER", r.Owner); err != nil {
		return out, err
	}
	if out.Custody, err = parseAddress("CUSTODY_ADDRESS", r.Custody); err != nil {
		return out, err
	}
	if out.BettingToken, err = parseAddress("BETTING_TOKEN", r.BettingToken); err != nil {
		return out, err
	}

	fee, ok := math.ParseBig256(r.BetFeeWei)
	if !ok || fee.Sign() < 0 {
		return out, fmt.Errorf("BET_FEE_WEI: invalid amount %q", r.BetFeeWei)
	}
	out.BetFee = fee

	switch r.ZeroWinnerPolicy {
	case "", "retain", "refund":
		out.ZeroWinnerPolicy = r.ZeroWinnerPolicy
	default:
		return out, fmt.Errorf("ZERO_WINNER_POLICY: unknown policy %q", r.ZeroWinnerPolicy)
	}

	if out.AllowEarlyResolution, err = strconv.ParseBool(r.AllowEarlyResolution); err != nil {
		return out, fmt.Errorf("ALLOW_EARLY_RESOLUTION: %w", err)
	}
	if out.OpenMarketCreation, err = strconv.ParseBool(r.OpenMarketCreation); err != nil {
		return out, fmt.Errorf("OPEN_MARKET_CREATION: %w", err)
	}
	return out, nil
}

func parseAddress(key, v string) (common.Address, error) {
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", key, v)
	}
	addr := common.HexToAddress(v)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%s: zero address", key)
	}
	return addr, nil
}
