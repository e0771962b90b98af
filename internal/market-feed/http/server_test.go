package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-feed/dto"
	"github.com/radieske/prediction-market-poc/internal/market-feed/repo"
)

type fakeRepo struct {
	markets map[uint64]dto.Market
	bets    map[uint64][]dto.Bet
	calls   int
	err     error
}

func (f *fakeRepo) ListMarkets(ctx context.Context) ([]dto.Market, error) {
	f.calls++
	out := []dto.Market{}
	for i := uint64(1); i <= uint64(len(f.markets)); i++ {
		out = append(out, f.markets[i])
	}
	return out, f.err
}

func (f *fakeRepo) GetMarket(ctx context.Context, id uint64) (dto.Market, error) {
	f.calls++
	if f.err != nil {
		return dto.Market{}, f.err
	}
	m, ok := f.markets[id]
	if !ok {
		return dto.Market{}, repo.ErrNotFound
	}
	return m, nil
}

func (f *fakeRepo) ListBets(ctx context.Context, id uint64) ([]dto.Bet, error) {
	f.calls++
	return f.bets[id], f.err
}

func (f *fakeRepo) ListPayouts(ctx context.Context, id uint64) ([]dto.Payout, error) {
	f.calls++
	return []dto.Payout{}, f.err
}

type memCache struct{ data map[string][]byte }

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	c.data[key] = b
	return err
}

func newAPI(r *fakeRepo) (*API, *memCache, map[string]int) {
	c := &memCache{data: map[string][]byte{}}
	seen := map[string]int{}
	return &API{Log: zap.NewNop(), ReadRepo: r, Cache: c, OnCache: func(res string) { seen[res]++ }}, c, seen
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetMarketReadThrough(t *testing.T) {
	r := &fakeRepo{markets: map[uint64]dto.Market{
		1: {ID: 1, Question: "Rain?", Outcomes: []string{"Yes", "No"}, OutcomePools: []decimal.Decimal{decimal.NewFromInt(10), decimal.NewFromInt(5)}},
	}}
	api, c, seen := newAPI(r)
	h := api.Router()

	for i := 0; i < 2; i++ {
		rec := get(t, h, "/v1/markets/1")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
		}
		var m dto.Market
		if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
			t.Fatal(err)
		}
		if m.Question != "Rain?" || !m.TotalPool().Equal(decimal.NewFromInt(15)) {
			t.Errorf("Unexpected market: %+v", m)
		}
	}
	if r.calls != 1 {
		t.Errorf("Expected a single repo call, got %d", r.calls)
	}
	if seen["miss"] != 1 || seen["hit"] != 1 {
		t.Errorf("Unexpected cache observations: %v", seen)
	}
	if _, ok := c.data["market:snapshot:1"]; !ok {
		t.Error("Expected market snapshot to be cached")
	}
}

func TestGetMarketErrors(t *testing.T) {
	api, _, _ := newAPI(&fakeRepo{markets: map[uint64]dto.Market{}})
	h := api.Router()

	if rec := get(t, h, "/v1/markets/abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad id, got %d", rec.Code)
	}
	if rec := get(t, h, "/v1/markets/0"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for id 0, got %d", rec.Code)
	}
	if rec := get(t, h, "/v1/markets/7"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	broken, _, _ := newAPI(&fakeRepo{err: errors.New("db down")})
	if rec := get(t, broken.Router(), "/v1/markets"); rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestListBetsAndMarkets(t *testing.T) {
	r := &fakeRepo{
		markets: map[uint64]dto.Market{1: {ID: 1}, 2: {ID: 2}},
		bets:    map[uint64][]dto.Bet{2: {{Index: 0, User: "0xabc", Amount: decimal.NewFromInt(3)}}},
	}
	api, c, _ := newAPI(r)
	h := api.Router()

	rec := get(t, h, "/v1/markets")
	var ms []dto.Market
	if err := json.Unmarshal(rec.Body.Bytes(), &ms); err != nil || len(ms) != 2 {
		t.Fatalf("Expected 2 markets, got %s (%v)", rec.Body, err)
	}
	if _, ok := c.data["market:snapshot:all"]; !ok {
		t.Error("Expected list to be cached")
	}

	rec = get(t, h, "/v1/markets/2/bets")
	var bs []dto.Bet
	if err := json.Unmarshal(rec.Body.Bytes(), &bs); err != nil || len(bs) != 1 || bs[0].User != "0xabc" {
		t.Fatalf("Unexpected bets: %s (%v)", rec.Body, err)
	}

	if rec := get(t, h, "/v1/markets/2/payouts"); rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Errorf("Expected empty payout list, got %d %q", rec.Code, rec.Body)
	}
}
