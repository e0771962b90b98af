package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/pkg/contracts/erc20"
)

// Targets são as URLs base dos serviços atrás do gateway
type Targets struct {
	Market string
	Token  string
	Feed   string
}

func proxy(log *zap.Logger, name, to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway target %s: invalid url %q", name, to)
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream unavailable", zap.String("target", name), zap.String("path", r.URL.Path), zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = fmt.Fprintf(w, `{"error":"bad_gateway","message":"%s unavailable"}`, name)
	}
	return rp, nil
}

// New monta o roteamento por prefixo:
// /api/markets/* e /api/stakes, /api/fees... vão para o market-service,
// /api/token/* para o token-service e /api/feed/* para o market-feed.
func New(log *zap.Logger, t Targets) (http.Handler, error) {
	market, err := proxy(log, "market-service", t.Market)
	if err != nil {
		return nil, err
	}
	token, err := proxy(log, "token-service", t.Token)
	if err != nil {
		return nil, err
	}
	feed, err := proxy(log, "market-feed", t.Feed)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	for _, p := range []string{"/api/markets", "/api/stakes", "/api/fees", "/api/owner", "/api/config", "/api/events"} {
		mux.Handle(p, http.StripPrefix("/api", market))
		mux.Handle(p+"/", http.StripPrefix("/api", market))
	}
	// token-service já expõe /token/*
	mux.Handle("/api/token/", http.StripPrefix("/api", token))
	mux.Handle("/api/feed/", http.StripPrefix("/api/feed", feed))

	return withCORS(mux), nil
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+erc20.CallerHeader)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
