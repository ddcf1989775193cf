package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/tolltag/core/metrics"
	"github.com/kilianp07/tolltag/infra/logger"
)

// InfluxConfig holds the InfluxDB connection settings of the influx sink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes toll quotes to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordQuote writes one toll_quote point.
func (s *InfluxSink) RecordQuote(rec coremetrics.QuoteRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, quotePoint(rec))
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func quotePoint(rec coremetrics.QuoteRecord) *write.Point {
	p := write.NewPointWithMeasurement("toll_quote").
		AddTag("outcome", rec.Outcome)
	if rec.Vehicle != "" {
		p.AddTag("vehicle", rec.Vehicle)
	}
	if rec.Rule != "" {
		p.AddTag("rule", rec.Rule)
	}
	if rec.Source != "" {
		p.AddTag("source", rec.Source)
	}
	if rec.ErrorKind != "" {
		p.AddTag("error_kind", rec.ErrorKind)
	}
	return p.AddField("quote_id", rec.QuoteID).
		AddField("amount_cents", rec.AmountCents).
		SetTime(rec.Time)
}
