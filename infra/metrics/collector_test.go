package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corelogger "github.com/kilianp07/tolltag/core/logger"
	coremetrics "github.com/kilianp07/tolltag/core/metrics"
	"github.com/kilianp07/tolltag/core/model"
	"github.com/kilianp07/tolltag/core/toll"
	"github.com/kilianp07/tolltag/internal/eventbus"
)

type recordSink struct {
	mu      sync.Mutex
	recs    []coremetrics.QuoteRecord
	dropped uint64
}

func (r *recordSink) RecordQuote(rec coremetrics.QuoteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func (r *recordSink) RecordDropped(n uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped += n
	return nil
}

func (r *recordSink) snapshot() ([]coremetrics.QuoteRecord, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]coremetrics.QuoteRecord(nil), r.recs...), r.dropped
}

func TestQuoteRecordFromEvent(t *testing.T) {
	now := time.Now()
	priced := QuoteRecordFromEvent(toll.QuoteEvent{Quote: toll.Quote{
		ID: "q1", Kind: model.KindTaxi, Rule: toll.RuleTaxiEmpty, Amount: model.Dollars(4, 50), Source: "cli", Time: now,
	}})
	assert.Equal(t, coremetrics.QuoteRecord{
		QuoteID: "q1", Source: "cli", Vehicle: "taxi", Rule: "taxi:empty",
		Outcome: coremetrics.OutcomePriced, AmountCents: 450, Time: now,
	}, priced)

	rejected := QuoteRecordFromEvent(toll.QuoteEvent{Quote: toll.Quote{ID: "q2"}, Err: toll.ErrNullVehicle})
	assert.Equal(t, coremetrics.OutcomeRejected, rejected.Outcome)
	assert.Equal(t, "null_vehicle", rejected.ErrorKind)
	assert.Empty(t, rejected.Vehicle)
	assert.Zero(t, rejected.AmountCents)
}

func TestStartQuoteCollector(t *testing.T) {
	bus := eventbus.NewTyped[toll.QuoteEvent]()
	sink := &recordSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartQuoteCollector(ctx, bus, sink)

	// wait for the subscription before publishing
	svc := toll.NewService(corelogger.NopLogger{}, bus)
	require.Eventually(t, func() bool {
		_, _ = svc.Quote(ctx, "test", model.Car{Passengers: 3})
		recs, _ := sink.snapshot()
		return len(recs) > 0
	}, time.Second, 10*time.Millisecond)

	_, err := svc.Quote(ctx, "test", nil)
	require.True(t, errors.Is(err, toll.ErrNullVehicle))
	require.Eventually(t, func() bool {
		recs, _ := sink.snapshot()
		return recs[len(recs)-1].Outcome == coremetrics.OutcomeRejected
	}, time.Second, 10*time.Millisecond)

	recs, _ := sink.snapshot()
	assert.Equal(t, "car", recs[0].Vehicle)
	assert.Equal(t, "car:pool", recs[0].Rule)
	assert.Equal(t, int64(100), recs[0].AmountCents)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestStartQuoteCollector_ReportsDrops(t *testing.T) {
	bus := eventbus.NewTypedWithBuffer[toll.QuoteEvent](0)
	// a subscriber that never reads forces drops
	bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(toll.QuoteEvent{})
	}
	sink := &recordSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartQuoteCollector(ctx, bus, sink)
	cancel()
	<-done
	_, dropped := sink.snapshot()
	assert.Equal(t, uint64(5), dropped)
}

func TestStartQuoteCollector_NilArgs(t *testing.T) {
	done := StartQuoteCollector(context.Background(), nil, coremetrics.NopSink{})
	select {
	case <-done:
	default:
		t.Fatal("expected closed channel for nil bus")
	}
}
