package toll

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/tolltag/core/logger"
	"github.com/kilianp07/tolltag/core/model"
	"github.com/kilianp07/tolltag/internal/eventbus"
)

// Quote is a priced vehicle passage.
type Quote struct {
	ID     string      `json:"id"`
	Kind   model.Kind  `json:"vehicle"`
	Rule   Rule        `json:"rule"`
	Amount model.Money `json:"amount"`
	Source string      `json:"source,omitempty"`
	Time   time.Time   `json:"time"`
}

// QuoteEvent is published for every quote attempt, successful or not.
// Err is nil on success.
type QuoteEvent struct {
	Quote Quote
	Err   error
}

// Service prices vehicles for the outer adapters. It keeps no pricing state
// between calls.
type Service struct {
	log logger.Logger
	bus *eventbus.TypedBus[QuoteEvent]
	now func() time.Time
}

// NewService creates a Service. A nil bus disables event publication.
func NewService(log logger.Logger, bus *eventbus.TypedBus[QuoteEvent]) *Service {
	return &Service{log: log, bus: bus, now: time.Now}
}

// Quote prices v and records the attempt. source identifies the adapter that
// received the vehicle (e.g. "http", "gantry/north-1").
func (s *Service) Quote(ctx context.Context, source string, v any) (Quote, error) {
	q := Quote{ID: uuid.NewString(), Source: source, Time: s.now()}
	if err := ctx.Err(); err != nil {
		return q, err
	}
	b, err := ClassifyAny(v)
	if err != nil {
		s.log.Warnf("quote %s from %s rejected: %v", q.ID, source, err)
		s.publish(QuoteEvent{Quote: q, Err: err})
		return q, err
	}
	q.Kind = b.Kind
	q.Rule = b.Rule
	q.Amount = b.Total
	s.log.Debugw("toll quoted", map[string]any{
		"quote_id": q.ID,
		"source":   source,
		"vehicle":  b.Kind.String(),
		"rule":     string(b.Rule),
		"amount":   b.Total.Decimal(),
	})
	s.publish(QuoteEvent{Quote: q})
	return q, nil
}

// Reject records a vehicle that never reached the evaluator, e.g. because the
// adapter could not decode it, and returns err unchanged.
func (s *Service) Reject(ctx context.Context, source string, err error) (Quote, error) {
	q := Quote{ID: uuid.NewString(), Source: source, Time: s.now()}
	if cerr := ctx.Err(); cerr != nil {
		return q, cerr
	}
	s.log.Warnf("quote %s from %s rejected: %v", q.ID, source, err)
	s.publish(QuoteEvent{Quote: q, Err: err})
	return q, err
}

func (s *Service) publish(ev QuoteEvent) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}
