package metrics

import (
	"errors"

	coremetrics "github.com/kilianp07/tolltag/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// AmountBuckets covers every toll the calculator can produce, in cents.
var AmountBuckets = []float64{100, 150, 200, 250, 300, 350, 400, 450, 500, 700, 800, 1000, 1500}

// PromSink records toll quotes in Prometheus metrics.
type PromSink struct {
	quotes  *prometheus.CounterVec
	amount  *prometheus.HistogramVec
	dropped prometheus.Counter
}

// NewPromSink registers toll metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "toll_quotes_total",
		Help: "Total number of toll quote attempts",
	}, []string{"vehicle", "rule", "outcome"})
	amount := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "toll_amount_cents",
		Help:    "Distribution of quoted tolls in cents",
		Buckets: AmountBuckets,
	}, []string{"vehicle"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "toll_quote_events_dropped_total",
		Help: "Quote events dropped before reaching the metrics collector",
	})

	var err error
	if quotes, err = register(reg, quotes); err != nil {
		return nil, err
	}
	if amount, err = register(reg, amount); err != nil {
		return nil, err
	}
	if dropped, err = register(reg, dropped); err != nil {
		return nil, err
	}
	return &PromSink{quotes: quotes, amount: amount, dropped: dropped}, nil
}

// register adds c to reg, reusing the existing collector when an identical
// one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordQuote increments the quote counter and, for priced quotes, observes
// the amount.
func (s *PromSink) RecordQuote(rec coremetrics.QuoteRecord) error {
	vehicle := rec.Vehicle
	if vehicle == "" {
		vehicle = "unknown"
	}
	rule := rec.Rule
	if rec.Outcome == coremetrics.OutcomeRejected {
		rule = rec.ErrorKind
	}
	s.quotes.WithLabelValues(vehicle, rule, rec.Outcome).Inc()
	if rec.Outcome == coremetrics.OutcomePriced {
		s.amount.WithLabelValues(vehicle).Observe(float64(rec.AmountCents))
	}
	return nil
}

// RecordDropped adds n to the dropped events counter.
func (s *PromSink) RecordDropped(n uint64) error {
	s.dropped.Add(float64(n))
	return nil
}
