package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	corelogger "github.com/kilianp07/tolltag/core/logger"
	"github.com/kilianp07/tolltag/core/model"
	"github.com/kilianp07/tolltag/core/request"
	"github.com/kilianp07/tolltag/core/toll"
	"github.com/kilianp07/tolltag/infra/metrics"
	"github.com/kilianp07/tolltag/internal/eventbus"
)

// RunScenario prices every passage of sc through the quoting service, checks
// each outcome and then checks the Prometheus counters fed by the collector.
func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	bus := eventbus.NewTypedWithBuffer[toll.QuoteEvent](len(sc.Passages) + 1)
	done := metrics.StartQuoteCollector(context.Background(), bus, sink)
	svc := toll.NewService(corelogger.NopLogger{}, bus)

	var total model.Money
	for _, p := range sc.Passages {
		q, err := price(svc, p)
		switch {
		case p.Expect.Error != "":
			if got := toll.ErrorKind(err); got != p.Expect.Error {
				t.Errorf("%s/%s: expected error %s, got %v", sc.Name, p.Label, p.Expect.Error, err)
			}
		case err != nil:
			t.Errorf("%s/%s: unexpected error %v", sc.Name, p.Label, err)
		default:
			want, _ := p.Expect.Money()
			if q.Amount != want {
				t.Errorf("%s/%s: expected %s, got %s", sc.Name, p.Label, want, q.Amount)
			}
			if p.Expect.Rule != "" && string(q.Rule) != p.Expect.Rule {
				t.Errorf("%s/%s: expected rule %s, got %s", sc.Name, p.Label, p.Expect.Rule, q.Rule)
			}
			total = total.Add(q.Amount)
		}
	}
	bus.Close()
	<-done

	if sc.Expected.Total != "" {
		want, err := model.ParseMoney(sc.Expected.Total)
		if err != nil {
			t.Fatalf("scenario %s total: %v", sc.Name, err)
		}
		if total != want {
			t.Errorf("scenario %s expected total %s, got %s", sc.Name, want, total)
		}
	}
	priced, rejected := countOutcomes(t, reg)
	if priced != sc.Expected.Priced {
		t.Errorf("scenario %s expected %d priced, got %d", sc.Name, sc.Expected.Priced, priced)
	}
	if rejected != sc.Expected.Rejected {
		t.Errorf("scenario %s expected %d rejected, got %d", sc.Name, sc.Expected.Rejected, rejected)
	}
}

func price(svc *toll.Service, p PassageDef) (toll.Quote, error) {
	ctx := context.Background()
	v, err := request.Decode(p.Request())
	if err != nil {
		return svc.Reject(ctx, "qa", err)
	}
	return svc.Quote(ctx, "qa", v)
}

func countOutcomes(t *testing.T, g prometheus.Gatherer) (priced, rejected int) {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "toll_quotes_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			n := int(m.GetCounter().GetValue())
			for _, l := range m.GetLabel() {
				if l.GetName() != "outcome" {
					continue
				}
				switch l.GetValue() {
				case "priced":
					priced += n
				case "rejected":
					rejected += n
				}
			}
		}
	}
	return priced, rejected
}
