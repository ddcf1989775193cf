package metrics

import (
	"context"
	"time"

	coremetrics "github.com/kilianp07/tolltag/core/metrics"
	"github.com/kilianp07/tolltag/core/toll"
	"github.com/kilianp07/tolltag/infra/logger"
	"github.com/kilianp07/tolltag/internal/eventbus"
)

// DropPollInterval is how often the collector reports bus drops.
var DropPollInterval = 10 * time.Second

// StartQuoteCollector subscribes to the quote bus and forwards every event to
// sink. It stops when the context is canceled or the bus is closed. The
// returned channel is closed once the collector has exited.
func StartQuoteCollector(ctx context.Context, bus *eventbus.TypedBus[toll.QuoteEvent], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("quote-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		ticker := time.NewTicker(DropPollInterval)
		defer ticker.Stop()
		var reported uint64
		flushDrops := func() {
			dr, ok := sink.(coremetrics.DropRecorder)
			if !ok {
				return
			}
			if n := bus.Dropped(); n > reported {
				if err := dr.RecordDropped(n - reported); err != nil {
					log.Warnf("record dropped events: %v", err)
				}
				reported = n
			}
		}
		for {
			select {
			case <-ctx.Done():
				flushDrops()
				return
			case <-ticker.C:
				flushDrops()
			case ev, ok := <-sub:
				if !ok {
					flushDrops()
					return
				}
				if err := sink.RecordQuote(QuoteRecordFromEvent(ev)); err != nil {
					log.Warnf("record quote %s: %v", ev.Quote.ID, err)
				}
			}
		}
	}()
	return done
}

// QuoteRecordFromEvent converts a service event into a sink record.
func QuoteRecordFromEvent(ev toll.QuoteEvent) coremetrics.QuoteRecord {
	q := ev.Quote
	rec := coremetrics.QuoteRecord{
		QuoteID: q.ID,
		Source:  q.Source,
		Time:    q.Time,
	}
	if ev.Err != nil {
		rec.Outcome = coremetrics.OutcomeRejected
		rec.ErrorKind = toll.ErrorKind(ev.Err)
		return rec
	}
	rec.Outcome = coremetrics.OutcomePriced
	rec.Vehicle = q.Kind.String()
	rec.Rule = string(q.Rule)
	rec.AmountCents = q.Amount.Cents()
	return rec
}
