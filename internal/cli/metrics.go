package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metricsHooks records construction events as Prometheus metrics on a
// private registry.
type metricsHooks struct {
	registry *prometheus.Registry

	taskLoads       *prometheus.CounterVec
	atomicFactors   prometheus.Gauge
	merges          prometheus.Counter
	productSize     prometheus.Histogram
	shrinks         prometheus.Counter
	shrunkStates    prometheus.Counter
	labelReductions *prometheus.CounterVec
	prunedStates    prometheus.Counter
	builds          *prometheus.CounterVec
	buildDuration   prometheus.Histogram
}

func newMetricsHooks() *metricsHooks {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	sizeBuckets := prometheus.ExponentialBuckets(2, 4, 10)

	return &metricsHooks{
		registry: reg,
		taskLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mastower_task_loads_total",
			Help: "Task files loaded by result",
		}, []string{"result"}),
		atomicFactors: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mastower_atomic_factors",
			Help: "Atomic factors of the last construction",
		}),
		merges: factory.NewCounter(prometheus.CounterOpts{
			Name: "mastower_merges_total",
			Help: "Merges performed",
		}),
		productSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mastower_product_states",
			Help:    "Number of states of merged factors",
			Buckets: sizeBuckets,
		}),
		shrinks: factory.NewCounter(prometheus.CounterOpts{
			Name: "mastower_shrinks_total",
			Help: "Shrink steps that reduced a factor",
		}),
		shrunkStates: factory.NewCounter(prometheus.CounterOpts{
			Name: "mastower_shrunk_states_total",
			Help: "States removed by shrinking",
		}),
		labelReductions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mastower_label_reductions_total",
			Help: "Label reduction steps by outcome",
		}, []string{"reduced"}),
		prunedStates: factory.NewCounter(prometheus.CounterOpts{
			Name: "mastower_pruned_states_total",
			Help: "States removed by pruning",
		}),
		builds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mastower_builds_total",
			Help: "Constructions by result",
		}, []string{"result"}),
		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mastower_build_duration_seconds",
			Help:    "Construction duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *metricsHooks) OnTaskLoad(_ context.Context, _ string, _, _ int, _ time.Duration, err error) {
	m.taskLoads.WithLabelValues(outcomeLabel(err)).Inc()
}

func (m *metricsHooks) OnAtomicFactors(_ context.Context, n int) {
	m.atomicFactors.Set(float64(n))
}

func (m *metricsHooks) OnMerge(_ context.Context, _, _, _, size int) {
	m.merges.Inc()
	m.productSize.Observe(float64(size))
}

func (m *metricsHooks) OnShrink(_ context.Context, _, before, after int) {
	m.shrinks.Inc()
	m.shrunkStates.Add(float64(before - after))
}

func (m *metricsHooks) OnLabelReduction(_ context.Context, reduced bool) {
	m.labelReductions.WithLabelValues(strconv.FormatBool(reduced)).Inc()
}

func (m *metricsHooks) OnPrune(_ context.Context, _, before, after int) {
	m.prunedStates.Add(float64(before - after))
}

func (m *metricsHooks) OnBuildComplete(_ context.Context, _ int, duration time.Duration, err error) {
	m.builds.WithLabelValues(outcomeLabel(err)).Inc()
	m.buildDuration.Observe(duration.Seconds())
}

// rows returns one row per gathered series: name with labels, and value.
// Histograms report their observation count and sum.
func (m *metricsHooks) rows() ([][]string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			name := mf.GetName()
			if labels := metric.GetLabel(); len(labels) > 0 {
				parts := make([]string, len(labels))
				for i, l := range labels {
					parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
				}
				name += "{" + strings.Join(parts, ",") + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				rows = append(rows, []string{name, formatFloat(metric.GetCounter().GetValue())})
			case metric.GetGauge() != nil:
				rows = append(rows, []string{name, formatFloat(metric.GetGauge().GetValue())})
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				rows = append(rows,
					[]string{name + "_count", strconv.FormatUint(h.GetSampleCount(), 10)},
					[]string{name + "_sum", formatFloat(h.GetSampleSum())})
			}
		}
	}
	return rows, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// print prints the gathered metrics as a table.
func (m *metricsHooks) print() error {
	rows, err := m.rows()
	if err != nil {
		return err
	}
	fmt.Println(StyleTitle.Render("Metrics"))
	fmt.Println(renderTable([]string{"Metric", "Value"}, rows))
	return nil
}
