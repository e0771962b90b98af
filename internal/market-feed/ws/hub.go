package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// AllMarkets é a assinatura que recebe eventos de qualquer mercado
const AllMarkets uint64 = 0

// client serializa escritas; gorilla não permite writers concorrentes
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *client) writeRaw(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Hub gerencia conexões WebSocket e assinaturas por mercado
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// marketID -> conexões inscritas
	subs map[uint64]map[*client]struct{}
}

func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[uint64]map[*client]struct{}),
	}
}

func (h *Hub) subscribe(id uint64, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[id]; !ok {
		h.subs[id] = make(map[*client]struct{})
	}
	h.subs[id][c] = struct{}{}
}

func (h *Hub) unsubscribe(id uint64, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[id]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, id)
		}
	}
}

// Subscribers conta as conexões inscritas em um mercado
func (h *Hub) Subscribers(id uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[id])
}

// HandleWS atende uma conexão até o cliente desconectar.
// Responde subscribe/unsubscribe com um ack e ping com pong.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	c := &client{conn: conn}

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.subscribe(msg.MarketID, c)
			_ = c.write(map[string]any{"type": "subscribed", "marketId": msg.MarketID})
		case "unsubscribe":
			h.unsubscribe(msg.MarketID, c)
			_ = c.write(map[string]any{"type": "unsubscribed", "marketId": msg.MarketID})
		case "ping":
			_ = c.write(map[string]string{"type": "pong"})
		default:
			_ = c.write(map[string]string{"type": "error", "error": "unknown message type"})
		}
	}

	h.mu.Lock()
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	h.mu.Unlock()
}

// Broadcast envia o evento aos inscritos no mercado e aos inscritos em todos
func (h *Hub) Broadcast(update MarketUpdate) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[update.MarketID])+len(h.subs[AllMarkets]))
	for c := range h.subs[update.MarketID] {
		targets = append(targets, c)
	}
	if update.MarketID != AllMarkets {
		for c := range h.subs[AllMarkets] {
			if _, dup := h.subs[update.MarketID][c]; !dup {
				targets = append(targets, c)
			}
		}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(update)
	if err != nil {
		h.log.Error("ws marshal update", zap.Error(err))
		return
	}
	for _, c := range targets {
		if err := c.writeRaw(b); err != nil {
			h.log.Debug("ws write failed", zap.Uint64("market_id", update.MarketID), zap.Error(err))
		}
	}
}
