package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-feed/dto"
	"github.com/radieske/prediction-market-poc/internal/market-feed/repo"
	"github.com/radieske/prediction-market-poc/pkg/contracts/topics"
)

// ReadRepo é o modelo de leitura projetado no Postgres
type ReadRepo interface {
	ListMarkets(ctx context.Context) ([]dto.Market, error)
	GetMarket(ctx context.Context, id uint64) (dto.Market, error)
	ListBets(ctx context.Context, marketID uint64) ([]dto.Bet, error)
	ListPayouts(ctx context.Context, marketID uint64) ([]dto.Payout, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// API expõe os endpoints REST de consulta de mercados.
// Leituras passam pelo cache; o projector invalida as chaves a cada evento.
type API struct {
	Log      *zap.Logger
	ReadRepo ReadRepo
	Cache    Cache
	// OnCache recebe "hit" ou "miss"
	OnCache func(result string)
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/markets", a.listMarkets)
	r.Get("/v1/markets/{id}", a.getMarket)
	r.Get("/v1/markets/{id}/bets", a.listBets)
	r.Get("/v1/markets/{id}/payouts", a.listPayouts)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func marketID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return 0, false
	}
	return id, true
}

// cached busca key no cache e, na falta, carrega do repositório e grava.
func cached[T any](ctx context.Context, a *API, key string, load func(context.Context) (T, error)) (T, error) {
	var v T
	ok, err := a.Cache.Get(ctx, key, &v)
	if err != nil {
		a.Log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	if ok && err == nil {
		a.observe("hit")
		return v, nil
	}
	a.observe("miss")
	v, err = load(ctx)
	if err != nil {
		return v, err
	}
	if err := a.Cache.Set(ctx, key, v); err != nil {
		a.Log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

func (a *API) observe(result string) {
	if a.OnCache != nil {
		a.OnCache(result)
	}
}

func (a *API) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	a.Log.Error("read model query failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (a *API) listMarkets(w http.ResponseWriter, r *http.Request) {
	ms, err := cached(r.Context(), a, topics.MarketListKey, a.ReadRepo.ListMarkets)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (a *API) getMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(w, r)
	if !ok {
		return
	}
	m, err := cached(r.Context(), a, topics.MarketCacheKey(id), func(ctx context.Context) (dto.Market, error) {
		return a.ReadRepo.GetMarket(ctx, id)
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) listBets(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(w, r)
	if !ok {
		return
	}
	bs, err := cached(r.Context(), a, topics.MarketCacheKey(id, "bets"), func(ctx context.Context) ([]dto.Bet, error) {
		return a.ReadRepo.ListBets(ctx, id)
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (a *API) listPayouts(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(w, r)
	if !ok {
		return
	}
	ps, err := cached(r.Context(), a, topics.MarketCacheKey(id, "payouts"), func(ctx context.Context) ([]dto.Payout, error) {
		return a.ReadRepo.ListPayouts(ctx, id)
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
