package metrics

import (
	"errors"
	"testing"

	"github.com/kilianp07/tolltag/core/factory"
)

type recordSink struct {
	count   int
	dropped uint64
	err     error
}

func (r *recordSink) RecordQuote(QuoteRecord) error {
	r.count++
	return r.err
}

func (r *recordSink) RecordDropped(n uint64) error {
	r.dropped += n
	return nil
}

type quoteOnlySink struct{ count int }

func (q *quoteOnlySink) RecordQuote(QuoteRecord) error {
	q.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	s3 := &quoteOnlySink{}
	m := NewMultiSink(s1, s2, s3)
	if err := m.RecordQuote(QuoteRecord{Vehicle: "car"}); err != nil {
		t.Fatalf("record quote: %v", err)
	}
	if err := m.RecordDropped(3); err != nil {
		t.Fatalf("record dropped: %v", err)
	}
	if s1.count != 1 || s2.count != 1 || s3.count != 1 {
		t.Fatalf("quotes not forwarded")
	}
	if s1.dropped != 3 || s2.dropped != 3 {
		t.Fatalf("drops not forwarded")
	}
}

func TestMultiSinkKeepsGoingOnError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	err := NewMultiSink(s1, s2).RecordQuote(QuoteRecord{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom got %v", err)
	}
	if s2.count != 1 {
		t.Fatalf("second sink skipped after error")
	}
}

func TestConfig(t *testing.T) {
	var c Config
	c.SetDefaults()
	if c.PrometheusAddr != ":9100" {
		t.Fatalf("unexpected default addr %s", c.PrometheusAddr)
	}
	c.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !c.HasSink("prometheus") || c.HasSink("influx") {
		t.Fatalf("HasSink mismatch")
	}
	c.Sinks = append(c.Sinks, factory.ModuleConfig{})
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for sink without type")
	}
}
