package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/radieske/prediction-market-poc/internal/market-service/dto"
	"github.com/radieske/prediction-market-poc/internal/market-service/engine"
	"github.com/radieske/prediction-market-poc/pkg/contracts/erc20"
)

// MarketClient chama a API do market-service em nome do worker
type MarketClient struct {
	BaseURL string
	Caller  common.Address
	HTTP    *http.Client
}

func New(base string, caller common.Address) *MarketClient {
	return &MarketClient{BaseURL: base, Caller: caller, HTTP: &http.Client{Timeout: 5 * time.Second}}
}

// RetryPayout pede ao market-service que reenvie o valor pendente.
// Erros da API voltam embrulhando o sentinel do engine (errors.Is).
func (c *MarketClient) RetryPayout(ctx context.Context, marketID uint64, user common.Address) (*big.Int, error) {
	url := c.BaseURL + "/markets/" + strconv.FormatUint(marketID, 10) + "/payouts/" + user.Hex() + "/retry"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(erc20.CallerHeader, c.Caller.Hex())

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		var e dto.ErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&e)
		if sentinel, ok := engine.ErrorOf(e.Error); ok {
			return nil, fmt.Errorf("market-service retry %d/%s: %w: %s", marketID, user.Hex(), sentinel, e.Message)
		}
		return nil, fmt.Errorf("market-service retry %d/%s: http %d: %s", marketID, user.Hex(), res.StatusCode, e.Message)
	}
	var out dto.RetryPayoutResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Paid, nil
}
