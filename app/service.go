// Package app wires the quoting service to its transports and sinks.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apitoll "github.com/kilianp07/tolltag/api/toll"
	"github.com/kilianp07/tolltag/config"
	coremetrics "github.com/kilianp07/tolltag/core/metrics"
	"github.com/kilianp07/tolltag/core/toll"
	"github.com/kilianp07/tolltag/infra/logger"
	"github.com/kilianp07/tolltag/infra/metrics"
	"github.com/kilianp07/tolltag/infra/mqtt"
	"github.com/kilianp07/tolltag/internal/eventbus"
)

// Service orchestrates the quoting service, the HTTP API, the metrics
// collector and the optional MQTT gantry.
type Service struct {
	Quotes *toll.Service

	cfg       *config.Config
	bus       *eventbus.TypedBus[toll.QuoteEvent]
	sink      coremetrics.MetricsSink
	gantry    *mqtt.Gantry
	server    *http.Server
	log       logger.Logger
	stop      context.CancelFunc
	collector <-chan struct{}
}

// New creates a Service from the configuration. The MQTT gantry is connected
// here when enabled; listeners start in Run.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logg := logger.New("service")

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}

	bus := eventbus.NewTyped[toll.QuoteEvent]()
	ctx, stop := context.WithCancel(context.Background())
	collector := metrics.StartQuoteCollector(ctx, bus, sink)
	quotes := toll.NewService(logger.New("toll"), bus)

	svc := &Service{
		Quotes:    quotes,
		cfg:       cfg,
		bus:       bus,
		sink:      sink,
		log:       logg,
		stop:      stop,
		collector: collector,
	}

	if cfg.MQTT.Enabled {
		g, err := mqtt.NewGantry(cfg.MQTT, quotes)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("mqtt gantry: %w", err)
		}
		svc.gantry = g
	}

	svc.server = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
	}
	return svc, nil
}

// Handler returns the HTTP routes served by Run.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(apitoll.Path, apitoll.NewHandler(s.Quotes))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// GantryReady is closed once the MQTT gantry holds its passage subscription.
// It returns nil when the gantry is disabled.
func (s *Service) GantryReady() <-chan struct{} {
	if s.gantry == nil {
		return nil
	}
	return s.gantry.Subscribed()
}

// Run starts the HTTP API and, when a prometheus sink is configured, the
// metrics endpoint. It blocks until the context is cancelled or the API
// listener fails.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.HasSink("prometheus") {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("toll API listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Server.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Close releases resources held by the service. Pending quote events are
// flushed to the sinks before it returns.
func (s *Service) Close() error {
	if s.gantry != nil {
		s.gantry.Close()
	}
	s.bus.Close()
	<-s.collector
	s.stop()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}
