//go:build !no_containers

package e2e

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	corelogger "github.com/kilianp07/tolltag/core/logger"
	"github.com/kilianp07/tolltag/core/model"
	"github.com/kilianp07/tolltag/core/toll"
	"github.com/kilianp07/tolltag/infra/metrics"
	"github.com/kilianp07/tolltag/internal/eventbus"
)

// startInflux starts an InfluxDB 2.7 container and returns it along with the
// base URL. The container is left running until the context is cancelled.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		WaitingFor:   wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	url := fmt.Sprintf("http://%s:%s", host, port.Port())
	return cont, url
}

// Test_E2E_InfluxQuotes prices a handful of vehicles through the quoting
// service and checks that every quote lands in InfluxDB as a toll_quote point.
func Test_E2E_InfluxQuotes(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	influxCont, influxURL := startInflux(ctx, t)
	defer influxCont.Terminate(ctx) //nolint:errcheck
	t.Logf("InfluxDB started at %s", influxURL)

	org, bucket, token := "e2e_org", "e2e_bucket", "e2e-token"
	cli := NewInfluxClient(influxURL, org, bucket, token)
	defer cli.Close()
	if err := cli.Onboard(ctx); err != nil {
		t.Fatalf("onboard: %v", err)
	}

	sink := metrics.NewInfluxSinkWithFallback(metrics.InfluxConfig{URL: influxURL, Token: token, Org: org, Bucket: bucket})
	if _, ok := sink.(*metrics.InfluxSink); !ok {
		t.Fatalf("expected a live influx sink, got %T", sink)
	}
	bus := eventbus.NewTyped[toll.QuoteEvent]()
	done := metrics.StartQuoteCollector(ctx, bus, sink)
	svc := toll.NewService(corelogger.NopLogger{}, bus)

	vehicles := []model.Vehicle{
		model.Car{Passengers: 1},
		model.Taxi{},
		model.Bus{Capacity: 90, Riders: 15},
		model.DeliveryTruck{GrossWeightClass: 7500},
	}
	var want int64
	for _, v := range vehicles {
		q, err := svc.Quote(ctx, "e2e", v)
		if err != nil {
			t.Fatalf("quote %T: %v", v, err)
		}
		want += q.Amount.Cents()
	}
	if _, err := svc.Quote(ctx, "e2e", nil); err == nil {
		t.Fatalf("expected null vehicle error")
	}
	bus.Close()
	<-done

	sum, count, err := cli.SumField(ctx, "toll_quote", "amount_cents")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != len(vehicles)+1 {
		t.Fatalf("expected %d points, got %d", len(vehicles)+1, count)
	}
	if sum != want {
		t.Fatalf("expected %d cents in total, got %d", want, sum)
	}
}
