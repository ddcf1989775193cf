package metrics

import (
	"fmt"

	"github.com/kilianp07/tolltag/core/factory"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink makes a quote sink available under name in the
// metrics.sinks configuration.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes returns the registered sink type names, sorted.
func SinkTypes() []string { return sinkRegistry.Names() }

// NewMetricsSink builds the quote sinks listed in cfgs. No entries yield a
// NopSink, one entry yields that sink directly and several are combined in a
// MultiSink. When an entry fails, the sinks already built are closed.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	sinks := make([]MetricsSink, 0, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			NewMultiSink(sinks...).Close()
			return nil, fmt.Errorf("metrics.sinks[%d] (%s): %w", i, c.Type, err)
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}
