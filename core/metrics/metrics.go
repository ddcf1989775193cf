package metrics

import "time"

// Outcome labels for QuoteRecord.
const (
	OutcomePriced   = "priced"
	OutcomeRejected = "rejected"
)

// QuoteRecord is one toll evaluation as seen by observability sinks.
type QuoteRecord struct {
	QuoteID     string
	Source      string
	Vehicle     string
	Rule        string
	Outcome     string
	ErrorKind   string
	AmountCents int64
	Time        time.Time
}

// MetricsSink records toll quotes.
type MetricsSink interface {
	RecordQuote(rec QuoteRecord) error
}

// DropRecorder is implemented by sinks that track events lost between the
// quoting service and the sink.
type DropRecorder interface {
	RecordDropped(n uint64) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordQuote(QuoteRecord) error { return nil }
func (NopSink) RecordDropped(uint64) error    { return nil }
