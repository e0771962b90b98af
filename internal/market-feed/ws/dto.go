package ws

import "encoding/json"

// ClientMsg é uma mensagem recebida do cliente WebSocket.
// MarketID 0 em subscribe assina todos os mercados.
type ClientMsg struct {
	Type     string `json:"type"` // subscribe | unsubscribe | ping
	MarketID uint64 `json:"marketId"`
}

// MarketUpdate é o evento repassado aos clientes; mesmo formato publicado pelo market-projector
type MarketUpdate struct {
	MarketID uint64          `json:"market_id"`
	Seq      uint64          `json:"seq"`
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
}
