package topics

import "strconv"

const (
	// Mercados
	MarketEvents = "market_events"

	// DLQs
	PayoutRetryDLQ = "payout_retry_dlq"

	// Redis
	MarketBroadcast   = "market_events_broadcast"
	MarketCachePrefix = "market:snapshot:"
	MarketListKey     = MarketCachePrefix + "all"
)

// MarketCacheKey é a chave do snapshot de um mercado no Redis.
// Sufixos (":bets", ":payouts") guardam as listas do mesmo mercado.
func MarketCacheKey(id uint64, suffix ...string) string {
	k := MarketCachePrefix + strconv.FormatUint(id, 10)
	for _, s := range suffix {
		k += ":" + s
	}
	return k
}
