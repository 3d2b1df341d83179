package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goAuthClient.MetricsSnapshot
	TelemetryDropped() uint64
}

type observedCounter struct {
	id         goAuthClient.MetricID
	instrument metric.Int64ObservableCounter
}

// observedHistogram exposes one engine histogram as a gauge per cumulative
// bucket plus a count gauge, since OTel has no observable histogram.
type observedHistogram struct {
	id      goAuthClient.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes engine metrics through a caller-supplied Meter.
// Values are read from the source on each collection.
type OTelExporter struct {
	source           metricsSource
	registration     metric.Registration
	counters         []observedCounter
	histograms       []observedHistogram
	telemetryDropped metric.Int64ObservableCounter
	state            metric.Int64ObservableGauge
	observables      []metric.Observable
}

// NewOTelExporter registers instruments that read from engine.
func NewOTelExporter(meter metric.Meter, engine *goAuthClient.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers instruments that read from source.
// The session state gauge is registered only when source also reports a
// lifecycle state.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}
	if err := e.createCounters(meter); err != nil {
		return nil, err
	}
	if err := e.createHistograms(meter); err != nil {
		return nil, err
	}
	if err := e.createGauges(meter); err != nil {
		return nil, err
	}

	registration, err := meter.RegisterCallback(e.observe, e.observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) createCounters(meter metric.Meter) error {
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		e.observables = append(e.observables, ins)
	}

	dropped, err := meter.Int64ObservableCounter(
		internaldefs.TelemetryDroppedName,
		metric.WithDescription(internaldefs.TelemetryDroppedHelp),
	)
	if err != nil {
		return fmt.Errorf("create telemetry dropped counter: %w", err)
	}
	e.telemetryDropped = dropped
	e.observables = append(e.observables, dropped)
	return nil
}

func (e *OTelExporter) createHistograms(meter metric.Meter) error {
	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			e.observables = append(e.observables, ins)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return fmt.Errorf("create histogram count gauge %s_count: %w", def.Name, err)
		}
		h.count = count
		e.observables = append(e.observables, count)
		e.histograms = append(e.histograms, h)
	}
	return nil
}

func (e *OTelExporter) createGauges(meter metric.Meter) error {
	if _, ok := internaldefs.SourceState(e.source); !ok {
		return nil
	}
	state, err := meter.Int64ObservableGauge(
		internaldefs.SessionStateName,
		metric.WithDescription(internaldefs.SessionStateHelp),
	)
	if err != nil {
		return fmt.Errorf("create session state gauge: %w", err)
	}
	e.state = state
	e.observables = append(e.observables, state)
	return nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i := range cumulative {
			observer.ObserveInt64(h.buckets[i], int64(cumulative[i]))
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	observer.ObserveInt64(e.telemetryDropped, int64(e.source.TelemetryDropped()))

	if e.state != nil {
		if st, ok := internaldefs.SourceState(e.source); ok {
			observer.ObserveInt64(e.state, 1, metric.WithAttributes(attribute.String(internaldefs.StateLabel, st.String())))
		}
	}
	return nil
}

// Close unregisters the callback. The instruments stay registered with the
// Meter but report nothing further.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
