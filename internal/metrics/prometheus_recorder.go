package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "buildstamp"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	resolveDuration prom.Histogram
	compileDuration *prom.HistogramVec
	commandResults  *prom.CounterVec
	pushResults     *prom.CounterVec
	pushRetries     *prom.CounterVec
	watchTriggers   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.resolveDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "version_resolve_duration_seconds",
			Help:      "Time spent inspecting the repository and deriving the build plan",
			Buckets:   prom.DefBuckets,
		})
		pr.compileDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Duration of individual target compilations",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"target", "result"})
		pr.commandResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "command_results_total",
			Help:      "Go tool invocations by action and outcome",
		}, []string{"action", "result"})
		pr.pushResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "image_push_results_total",
			Help:      "Image push outcomes per registry",
		}, []string{"registry", "result"})
		pr.pushRetries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "image_push_retries_total",
			Help:      "Image push retries per registry",
		}, []string{"registry"})
		pr.watchTriggers = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_triggers_total",
			Help:      "Runs started by the watch loop",
		}, []string{"action"})
		reg.MustRegister(pr.resolveDuration, pr.compileDuration, pr.commandResults, pr.pushResults, pr.pushRetries, pr.watchTriggers)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveResolveDuration(d time.Duration) {
	if p == nil || p.resolveDuration == nil {
		return
	}
	p.resolveDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveCompileDuration(target string, d time.Duration, result ResultLabel) {
	if p == nil || p.compileDuration == nil {
		return
	}
	p.compileDuration.WithLabelValues(target, string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCommandResult(action string, result ResultLabel) {
	if p == nil || p.commandResults == nil {
		return
	}
	p.commandResults.WithLabelValues(action, string(result)).Inc()
}

func (p *PrometheusRecorder) IncPushResult(registry string, result ResultLabel) {
	if p == nil || p.pushResults == nil {
		return
	}
	p.pushResults.WithLabelValues(registry, string(result)).Inc()
}

func (p *PrometheusRecorder) IncPushRetry(registry string) {
	if p == nil || p.pushRetries == nil {
		return
	}
	p.pushRetries.WithLabelValues(registry).Inc()
}

func (p *PrometheusRecorder) IncWatchTrigger(action string) {
	if p == nil || p.watchTriggers == nil {
		return
	}
	p.watchTriggers.WithLabelValues(action).Inc()
}
