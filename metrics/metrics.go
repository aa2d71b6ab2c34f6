// file: metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 判题与补判相关指标
type Metrics struct {
	GateDecisions    *prometheus.CounterVec
	Promotions       prometheus.Counter
	ReconcileRuns    *prometheus.CounterVec
	ReconcileLatency prometheus.Histogram
	MatchErrors      prometheus.Counter
}

const (
	ResultWithheld = "withheld"
	ResultSolved   = "solved"
	ResultFailed   = "failed"

	RunOK    = "ok"
	RunError = "error"
)

// New 创建并注册到 reg。reg 为 nil 时只创建不注册（测试用）
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dalictf_submissions_total",
			Help: "Flag submissions by recorded result (withheld submissions are recorded as failed)",
		}, []string{"result"}),
		Promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dalictf_reconcile_promotions_total",
			Help: "Failed submissions promoted to solves after challenge expiry",
		}),
		ReconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dalictf_reconcile_runs_total",
			Help: "Reconciliation passes by outcome",
		}, []string{"outcome"}),
		ReconcileLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dalictf_reconcile_duration_seconds",
			Help:    "Duration of a reconciliation pass",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		MatchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dalictf_reconcile_match_errors_total",
			Help: "Flag comparisons that failed during reconciliation and were treated as no-match",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.GateDecisions, m.Promotions, m.ReconcileRuns, m.ReconcileLatency, m.MatchErrors)
	}
	return m
}

// ObserveGate 记录一次提交结果
func (m *Metrics) ObserveGate(result string) {
	m.GateDecisions.WithLabelValues(result).Inc()
}

// ObserveRun 记录一次补判。start 为开始时间
func (m *Metrics) ObserveRun(start time.Time, promoted int, err error) {
	m.ReconcileLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		m.ReconcileRuns.WithLabelValues(RunError).Inc()
		return
	}
	m.ReconcileRuns.WithLabelValues(RunOK).Inc()
	m.Promotions.Add(float64(promoted))
}
