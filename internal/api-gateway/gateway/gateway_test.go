package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

// echo devolve "nome path" para conferir o destino e o prefixo removido
func echo(name string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, name+" "+r.URL.Path+" "+r.Header.Get("X-Caller-Address"))
	}))
}

func TestRouting(t *testing.T) {
	market, token, feed := echo("market"), echo("token"), echo("feed")
	defer market.Close()
	defer token.Close()
	defer feed.Close()

	h, err := New(zap.NewNop(), Targets{Market: market.URL, Token: token.URL, Feed: feed.URL})
	if err != nil {
		t.Fatal(err)
	}
	gw := httptest.NewServer(h)
	defer gw.Close()

	tests := []struct {
		path string
		want string
	}{
		{"/api/markets/1/bets", "market /markets/1/bets 0xabc"},
		{"/api/markets", "market /markets 0xabc"},
		{"/api/stakes/0x01", "market /stakes/0x01 0xabc"},
		{"/api/fees", "market /fees 0xabc"},
		{"/api/token/balance", "token /token/balance 0xabc"},
		{"/api/feed/v1/markets/2", "feed /v1/markets/2 0xabc"},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, gw.URL+tt.path, nil)
		req.Header.Set("X-Caller-Address", "0xabc")
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(res.Body)
		res.Body.Close()
		if string(body) != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.path, tt.want, body)
		}
	}

	res, err := http.Get(gw.URL + "/api/unknown")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", res.StatusCode)
	}
}

func TestPreflightAndUpstreamDown(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	h, err := New(zap.NewNop(), Targets{Market: down.URL, Token: down.URL, Feed: down.URL})
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/markets", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 on preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got == "" {
		t.Error("Expected CORS headers")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets/1", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rec.Code)
	}
}

func TestInvalidTarget(t *testing.T) {
	if _, err := New(zap.NewNop(), Targets{Market: "::", Token: "http://x", Feed: "http://y"}); err == nil {
		t.Error("Expected error for invalid target")
	}
}
