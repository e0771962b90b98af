package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/radieske/prediction-market-poc/internal/market-service/dto"
	"github.com/radieske/prediction-market-poc/internal/market-service/engine"
	"github.com/radieske/prediction-market-poc/internal/shared/tokenledger"
	"github.com/radieske/prediction-market-poc/pkg/contracts/erc20"
)

var (
	owner   = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	custody = common.HexToAddress("0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9")
	zeta    = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	alice   = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob     = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	tokens *tokenledger.Memory
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, tokens: tokenledger.NewMemory(), now: time.Unix(1_700_000_000, 0)}
	eng, err := engine.New(engine.Config{
		Owner:              owner,
		Custody:            custody,
		BettingToken:       zeta,
		BetFee:             big.NewInt(1),
		OpenMarketCreation: true,
		Now:                func() time.Time { return h.now },
	}, h.tokens, nil)
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	h.srv = httptest.NewServer(NewServer(nil, eng).Router())
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) fund(user common.Address, amount int64) {
	ctx := context.Background()
	_, _ = h.tokens.Mint(ctx, zeta, user, big.NewInt(amount))
	_ = h.tokens.Approve(ctx, zeta, user, custody, big.NewInt(amount))
}

func (h *harness) do(method, path string, from *common.Address, body any) *http.Response {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, h.srv.URL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if from != nil {
		req.Header.Set(erc20.CallerHeader, from.Hex())
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	h.t.Cleanup(func() { res.Body.Close() })
	return res
}

func decodeBody[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func expectStatus(t *testing.T, res *http.Response, want int) {
	t.Helper()
	if res.StatusCode != want {
		t.Fatalf("Expected status %d, got %d", want, res.StatusCode)
	}
}

func TestMarketLifecycle(t *testing.T) {
	h := newHarness(t)

	res := h.do(http.MethodPost, "/markets", &owner, map[string]any{
		"question":        "Will it rain tomorrow?",
		"outcomes":        []string{"Yes", "No"},
		"resolution_time": h.now.Unix() + 3600,
	})
	expectStatus(t, res, http.StatusCreated)
	m := decodeBody[engine.Market](t, res)
	if m.ID != 1 || m.BettingAsset != zeta {
		t.Fatalf("Unexpected market: %+v", m)
	}

	h.fund(alice, 11)
	h.fund(bob, 11)
	for _, b := range []struct {
		who     common.Address
		outcome int
	}{{alice, 0}, {bob, 1}} {
		res := h.do(http.MethodPost, "/markets/1/bets", &b.who, map[string]any{
			"outcome_index": b.outcome, "amount": "10", "token": zeta.Hex(),
		})
		expectStatus(t, res, http.StatusCreated)
	}

	res = h.do(http.MethodGet, "/markets/1/bets/1", nil, nil)
	expectStatus(t, res, http.StatusOK)
	if got := decodeBody[engine.Bet](t, res); got.User != bob || got.Amount.Int64() != 10 {
		t.Errorf("Unexpected bet: %+v", got)
	}

	res = h.do(http.MethodPost, "/markets/1/resolve", &owner, map[string]any{"winning_outcome": 0})
	expectStatus(t, res, http.StatusConflict)

	h.now = h.now.Add(time.Hour)
	res = h.do(http.MethodPost, "/markets/1/resolve", &owner, map[string]any{"winning_outcome": 0})
	expectStatus(t, res, http.StatusOK)

	bal, _ := h.tokens.BalanceOf(context.Background(), zeta, alice)
	if bal.Int64() != 20 {
		t.Errorf("Expected alice balance 20, got %s", bal)
	}

	res = h.do(http.MethodGet, "/events?from=2", nil, nil)
	expectStatus(t, res, http.StatusOK)
	evs := decodeBody[[]map[string]any](t, res)
	if len(evs) != 4 || evs[0]["kind"] != "BetPlaced" || evs[2]["kind"] != "MarketResolved" {
		t.Errorf("Unexpected events: %v", evs)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	h := newHarness(t)
	res := h.do(http.MethodPost, "/markets", &owner, map[string]any{
		"question": "Q", "outcomes": []string{"A", "B"}, "resolution_time": h.now.Unix() + 60,
	})
	expectStatus(t, res, http.StatusCreated)

	tests := []struct {
		name   string
		method string
		path   string
		from   *common.Address
		body   any
		status int
		code   string
	}{
		{"unknown market", http.MethodGet, "/markets/9", nil, nil, http.StatusNotFound, "not_found"},
		{"market zero", http.MethodGet, "/markets/0", nil, nil, http.StatusNotFound, "not_found"},
		{"outcome out of range", http.MethodGet, "/markets/1/outcomes/2", nil, nil, http.StatusNotFound, "index_out_of_range"},
		{"bet out of range", http.MethodGet, "/markets/1/bets/0", nil, nil, http.StatusNotFound, "index_out_of_range"},
		{"no caller", http.MethodPost, "/markets/1/bets", nil, map[string]any{"outcome_index": 0, "amount": "1", "token": zeta.Hex()}, http.StatusBadRequest, "bad_request"},
		{"bad amount", http.MethodPost, "/markets/1/bets", &alice, map[string]any{"outcome_index": 0, "amount": "1.5", "token": zeta.Hex()}, http.StatusBadRequest, "bad_request"},
		{"zero amount", http.MethodPost, "/markets/1/bets", &alice, map[string]any{"outcome_index": 0, "amount": "0", "token": zeta.Hex()}, http.StatusBadRequest, "validation_error"},
		{"outcome equals length", http.MethodPost, "/markets/1/bets", &alice, map[string]any{"outcome_index": 2, "amount": "1", "token": zeta.Hex()}, http.StatusBadRequest, "validation_error"},
		{"unfunded", http.MethodPost, "/markets/1/bets", &alice, map[string]any{"outcome_index": 0, "amount": "1", "token": zeta.Hex()}, http.StatusUnprocessableEntity, "transfer_failed"},
		{"not owner", http.MethodPost, "/markets/1/resolve", &alice, map[string]any{"winning_outcome": 0}, http.StatusForbidden, "unauthorized"},
		{"nothing owed", http.MethodPost, "/markets/1/payouts/" + alice.Hex() + "/retry", nil, nil, http.StatusConflict, "nothing_owed"},
		{"no fees", http.MethodPost, "/fees/withdraw", &owner, map[string]any{"token": zeta.Hex(), "to": owner.Hex()}, http.StatusConflict, "nothing_owed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.do(tt.method, tt.path, tt.from, tt.body)
			expectStatus(t, res, tt.status)
			if got := decodeBody[dto.ErrorResponse](t, res); got.Error != tt.code {
				t.Errorf("Expected code %q, got %q (%s)", tt.code, got.Error, got.Message)
			}
		})
	}
}

func TestOwnershipAndConfig(t *testing.T) {
	h := newHarness(t)

	res := h.do(http.MethodPost, "/owner/transfer", &owner, map[string]any{"new_owner": alice.Hex()})
	expectStatus(t, res, http.StatusOK)

	res = h.do(http.MethodGet, "/config", nil, nil)
	expectStatus(t, res, http.StatusOK)
	cfg := decodeBody[dto.ConfigResponse](t, res)
	if cfg.Owner != alice || cfg.BetFee.Int64() != 1 || cfg.Custody != custody {
		t.Errorf("Unexpected config: %+v", cfg)
	}

	res = h.do(http.MethodPost, "/owner/renounce", &owner, nil)
	expectStatus(t, res, http.StatusForbidden)

	res = h.do(http.MethodPost, "/owner/renounce", &alice, nil)
	expectStatus(t, res, http.StatusOK)
	if got := decodeBody[dto.OwnerResponse](t, res); got.Owner != (common.Address{}) {
		t.Errorf("Expected zero owner, got %s", got.Owner.Hex())
	}
}

func TestStakeEndpoints(t *testing.T) {
	h := newHarness(t)
	h.fund(alice, 50)

	res := h.do(http.MethodPost, "/stakes", &alice, map[string]any{"amount": "30", "token": zeta.Hex()})
	expectStatus(t, res, http.StatusOK)

	res = h.do(http.MethodGet, "/stakes/"+strings.ToLower(alice.Hex()), nil, nil)
	expectStatus(t, res, http.StatusOK)
	if got := decodeBody[dto.StakeResponse](t, res); got.Staked.Int64() != 30 || got.Token != zeta {
		t.Errorf("Unexpected stake: %+v", got)
	}

	res = h.do(http.MethodPost, "/stakes/withdraw", &alice, map[string]any{"amount": "31", "token": zeta.Hex()})
	expectStatus(t, res, http.StatusBadRequest)

	res = h.do(http.MethodPost, "/stakes/withdraw", &alice, map[string]any{"amount": "30", "token": zeta.Hex()})
	expectStatus(t, res, http.StatusOK)
	if got := decodeBody[dto.StakeResponse](t, res); got.Staked.Sign() != 0 {
		t.Errorf("Expected empty stake, got %s", got.Staked)
	}
}
