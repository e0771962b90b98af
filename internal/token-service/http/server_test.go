package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-service/token"
	"github.com/radieske/prediction-market-poc/internal/shared/tokenledger"
	"github.com/radieske/prediction-market-poc/pkg/contracts/erc20"
)

var (
	zeta    = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	custody = common.HexToAddress("0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9")
	alice   = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func newTestServer(t *testing.T, dev bool) (*httptest.Server, *tokenledger.Memory) {
	t.Helper()
	ledger := tokenledger.NewMemory()
	srv := httptest.NewServer(NewServer(zap.NewNop(), ledger, dev).Router())
	t.Cleanup(srv.Close)
	return srv, ledger
}

func post(t *testing.T, url string, caller *common.Address, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	if caller != nil {
		req.Header.Set(erc20.CallerHeader, caller.Hex())
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { res.Body.Close() })
	return res
}

// O cliente do market-service e o servidor precisam concordar no contrato.
func TestServer_WithMarketClient(t *testing.T) {
	srv, _ := newTestServer(t, true)
	ctx := context.Background()
	cli := token.New(srv.URL)

	res := post(t, srv.URL+"/token/mint", nil, erc20.MintRequest{Token: zeta, To: alice, Amount: big.NewInt(50)})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("mint: expected 200, got %d", res.StatusCode)
	}

	err := cli.TransferFrom(ctx, zeta, custody, alice, custody, big.NewInt(20))
	if !errors.Is(err, erc20.ErrInsufficientAllowance) {
		t.Fatalf("Expected ErrInsufficientAllowance, got %v", err)
	}
	if err := cli.Approve(ctx, zeta, alice, custody, big.NewInt(20)); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if err := cli.TransferFrom(ctx, zeta, custody, alice, custody, big.NewInt(20)); err != nil {
		t.Fatalf("TransferFrom failed: %v", err)
	}

	held, err := cli.BalanceOf(ctx, zeta, custody)
	if err != nil || held.Int64() != 20 {
		t.Fatalf("Expected custody 20, got %v (%v)", held, err)
	}

	if err := cli.Transfer(ctx, zeta, custody, alice, big.NewInt(21)); !errors.Is(err, erc20.ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}

	res = post(t, srv.URL+"/token/reject", nil, erc20.RejectRequest{Account: alice, Reject: true})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d", res.StatusCode)
	}
	if err := cli.Transfer(ctx, zeta, custody, alice, big.NewInt(1)); !errors.Is(err, erc20.ErrRecipientRejected) {
		t.Errorf("Expected ErrRecipientRejected, got %v", err)
	}
}

func TestServer_RequiresCaller(t *testing.T) {
	srv, _ := newTestServer(t, false)
	res := post(t, srv.URL+"/token/transfer", nil, erc20.TransferRequest{Token: zeta, To: alice, Amount: big.NewInt(1)})
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", res.StatusCode)
	}
}

func TestServer_InvalidAmount(t *testing.T) {
	srv, _ := newTestServer(t, false)
	res := post(t, srv.URL+"/token/transfer", &alice, erc20.TransferRequest{Token: zeta, To: custody, Amount: big.NewInt(0)})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", res.StatusCode)
	}
	var e erc20.ErrorResponse
	_ = json.NewDecoder(res.Body).Decode(&e)
	if e.Error != erc20.CodeInvalidAmount {
		t.Errorf("Expected %s, got %s", erc20.CodeInvalidAmount, e.Error)
	}
}

func TestServer_DevRoutesDisabled(t *testing.T) {
	srv, _ := newTestServer(t, false)
	res := post(t, srv.URL+"/token/mint", nil, erc20.MintRequest{Token: zeta, To: alice, Amount: big.NewInt(1)})
	if res.StatusCode != http.StatusNotFound && res.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected mint to be unavailable, got %d", res.StatusCode)
	}
}
