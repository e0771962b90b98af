package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/radieske/prediction-market-poc/pkg/contracts/erc20"
)

// Client fala com o token-service. O header de identidade faz o papel de msg.sender.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Transfer move amount de "from" (que assina a chamada) para "to".
func (c *Client) Transfer(ctx context.Context, tokenAddr, from, to common.Address, amount *big.Int) error {
	return c.post(ctx, "/token/transfer", from, erc20.TransferRequest{Token: tokenAddr, To: to, Amount: amount}, nil)
}

// TransferFrom gasta a allowance de spender sobre "from".
func (c *Client) TransferFrom(ctx context.Context, tokenAddr, spender, from, to common.Address, amount *big.Int) error {
	return c.post(ctx, "/token/transfer-from", spender, erc20.TransferFromRequest{Token: tokenAddr, From: from, To: to, Amount: amount}, nil)
}

func (c *Client) Approve(ctx context.Context, tokenAddr, owner, spender common.Address, amount *big.Int) error {
	return c.post(ctx, "/token/approve", owner, erc20.ApproveRequest{Token: tokenAddr, Spender: spender, Amount: amount}, nil)
}

func (c *Client) BalanceOf(ctx context.Context, tokenAddr, account common.Address) (*big.Int, error) {
	q := url.Values{"token": {tokenAddr.Hex()}, "account": {account.Hex()}}
	var out erc20.BalanceResponse
	if err := c.get(ctx, "/token/balance?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Balance, nil
}

func (c *Client) post(ctx context.Context, path string, caller common.Address, in, out any) error {
	body, _ := json.Marshal(in)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(erc20.CallerHeader, caller.Hex())
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		var e erc20.ErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&e)
		if sentinel, ok := erc20.ErrorOf(e.Error); ok {
			return fmt.Errorf("token-service %s: %w", req.URL.Path, sentinel)
		}
		return fmt.Errorf("token-service %s http %d: %s", req.URL.Path, res.StatusCode, e.Message)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
