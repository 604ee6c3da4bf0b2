package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var durationBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600}

// NewRegistry builds a registry holding the batch metrics for s.
func NewRegistry(s Summary) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()

	tasks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "btor2run_tasks_total",
		Help: "Tasks run in the last batch, by result.",
	}, []string{"result"})
	durations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "btor2run_task_duration_seconds",
		Help:    "Wall time of each task in the last batch.",
		Buckets: durationBuckets,
	})
	verdicts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "btor2run_verdicts",
		Help: "Property verdicts reported by the checker in the last batch.",
	}, []string{"status"})
	peak := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "btor2run_peak_active_tasks",
		Help: "Highest number of tasks running at once in the last batch.",
	})
	limit := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "btor2run_concurrency_limit",
		Help: "Worker pool size used by the last batch.",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "btor2run_last_run_timestamp_seconds",
		Help: "Unix time the last batch started.",
	})

	for _, c := range []prometheus.Collector{tasks, durations, verdicts, peak, limit, lastRun} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	tasks.WithLabelValues("success").Add(0)
	for _, o := range s.Outcomes {
		result := "success"
		if !o.Succeeded() {
			result = string(o.Reason)
		}
		tasks.WithLabelValues(result).Inc()
		if o.Duration > 0 {
			durations.Observe(o.Duration.Seconds())
		}
	}
	for st, n := range s.Verdicts {
		verdicts.WithLabelValues(string(st)).Set(float64(n))
	}
	peak.Set(float64(s.PeakActive))
	limit.Set(float64(s.Concurrency))
	if !s.Started.IsZero() {
		lastRun.Set(float64(s.Started.Unix()))
	}
	return reg, nil
}

// WriteMetricsFile writes s in the Prometheus text format for the node
// exporter textfile collector. The file is replaced atomically.
func WriteMetricsFile(path string, s Summary) error {
	reg, err := NewRegistry(s)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
