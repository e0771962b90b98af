package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// send aguarda a resposta do hub, o que garante que a mensagem foi processada
func send(t *testing.T, conn *websocket.Conn, msg ClientMsg) map[string]any {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatal(err)
	}
	var ack map[string]any
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	return ack
}

func readUpdate(t *testing.T, conn *websocket.Conn) MarketUpdate {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var upd MarketUpdate
	if err := conn.ReadJSON(&upd); err != nil {
		t.Fatalf("read update: %v", err)
	}
	return upd
}

func TestHubRoutesByMarket(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	one := dial(t, srv)
	all := dial(t, srv)

	if ack := send(t, one, ClientMsg{Type: "subscribe", MarketID: 1}); ack["type"] != "subscribed" {
		t.Fatalf("Unexpected ack: %v", ack)
	}
	send(t, all, ClientMsg{Type: "subscribe", MarketID: AllMarkets})
	if hub.Subscribers(1) != 1 || hub.Subscribers(AllMarkets) != 1 {
		t.Fatalf("Unexpected subscriber counts")
	}

	hub.Broadcast(MarketUpdate{MarketID: 2, Seq: 5, Kind: "BetPlaced", Payload: json.RawMessage(`{}`)})
	hub.Broadcast(MarketUpdate{MarketID: 1, Seq: 6, Kind: "MarketResolved", Payload: json.RawMessage(`{}`)})

	if upd := readUpdate(t, one); upd.Seq != 6 || upd.Kind != "MarketResolved" {
		t.Errorf("Expected only market 1 update, got %+v", upd)
	}
	if upd := readUpdate(t, all); upd.Seq != 5 {
		t.Errorf("Expected seq 5 first, got %+v", upd)
	}
	if upd := readUpdate(t, all); upd.Seq != 6 {
		t.Errorf("Expected seq 6, got %+v", upd)
	}
}

func TestHubPingAndUnsubscribe(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	if pong := send(t, conn, ClientMsg{Type: "ping"}); pong["type"] != "pong" {
		t.Errorf("Expected pong, got %v", pong)
	}
	send(t, conn, ClientMsg{Type: "subscribe", MarketID: 3})
	send(t, conn, ClientMsg{Type: "unsubscribe", MarketID: 3})
	if n := hub.Subscribers(3); n != 0 {
		t.Errorf("Expected no subscribers, got %d", n)
	}
	if res := send(t, conn, ClientMsg{Type: "dance"}); res["type"] != "error" {
		t.Errorf("Expected error reply, got %v", res)
	}
}

type recorder struct{ got []MarketUpdate }

func (r *recorder) Broadcast(u MarketUpdate) { r.got = append(r.got, u) }

func TestDispatch(t *testing.T) {
	rec := &recorder{}
	Dispatch(zap.NewNop(), []byte(`{"market_id":4,"seq":9,"kind":"PayoutSent","payload":{"amount":"20"}}`), rec)
	Dispatch(zap.NewNop(), []byte(`not json`), rec)

	if len(rec.got) != 1 {
		t.Fatalf("Expected 1 update, got %d", len(rec.got))
	}
	if u := rec.got[0]; u.MarketID != 4 || u.Seq != 9 || string(u.Payload) != `{"amount":"20"}` {
		t.Errorf("Unexpected update: %+v", u)
	}
}
