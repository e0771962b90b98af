package metrics

import (
	"context"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// EventSink conta os eventos do engine. Implementa engine.Sink.
type EventSink struct {
	Events     *prometheus.CounterVec // por kind
	PaidOutWei *prometheus.CounterVec // por token
	FeesWei    *prometheus.CounterVec // por token
}

func NewEventSink(reg prometheus.Registerer) *EventSink {
	s := &EventSink{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "market_events_total", Help: "eventos emitidos pelo engine",
		}, []string{"kind"}),
		PaidOutWei: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "market_payouts_wei_total", Help: "wei pagos a apostadores (aproximado em float)",
		}, []string{"token"}),
		FeesWei: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "market_fees_wei_total", Help: "taxas cobradas em wei (aproximado em float)",
		}, []string{"token"}),
	}
	reg.MustRegister(s.Events, s.PaidOutWei, s.FeesWei)
	return s
}

func (s *EventSink) Emit(_ context.Context, rec events.Record) {
	s.Events.WithLabelValues(string(rec.Event.Kind())).Inc()
	switch ev := rec.Event.(type) {
	case events.PayoutSent:
		s.PaidOutWei.WithLabelValues(ev.Token.Hex()).Add(toFloat(ev.Amount))
	case events.BetPlaced:
		s.FeesWei.WithLabelValues(ev.Token.Hex()).Add(toFloat(ev.Fee))
	}
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
