package metrics

import "errors"

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordQuote forwards the record to every sink. All sinks are attempted; the
// errors are joined.
func (m *MultiSink) RecordQuote(rec QuoteRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordQuote(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordDropped forwards drop counts to sinks that support them.
func (m *MultiSink) RecordDropped(n uint64) error {
	var errs []error
	for _, s := range m.Sinks {
		if dr, ok := s.(DropRecorder); ok {
			if err := dr.RecordDropped(n); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
