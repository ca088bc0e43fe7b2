package poller

import (
	"context"
	"time"

	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

type MetricsHelper struct {
	Registry *prometheus.Registry

	CtlCounter           *prometheus.CounterVec // ctl calls by op
	WaitCounter          prometheus.Counter
	ReadyEventsCounter   prometheus.Counter // records handed back by wait
	OneShotDisarmCounter prometheus.Counter
	NativeFailureCounter prometheus.Counter
	OpenSetsGauge        prometheus.Gauge
	WaitHistogram        prometheus.Histogram
}

func NewMetricsHelper() *MetricsHelper {
	m := &MetricsHelper{
		Registry: prometheus.NewRegistry(),
		CtlCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eggie_poll_ctl_total",
		}, []string{"op"}),
		WaitCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eggie_poll_wait_total",
		}),
		ReadyEventsCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eggie_poll_ready_events_total",
		}),
		OneShotDisarmCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eggie_poll_oneshot_disarm_total",
		}),
		NativeFailureCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eggie_poll_native_failure_total",
		}),
		OpenSetsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eggie_poll_open_sets",
		}),
		WaitHistogram: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eggie_poll_wait_seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	m.Registry.MustRegister(
		m.CtlCounter,
		m.WaitCounter,
		m.ReadyEventsCounter,
		m.OneShotDisarmCounter,
		m.NativeFailureCounter,
		m.OpenSetsGauge,
		m.WaitHistogram,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// StartPush pushes the registry to a Pushgateway every interval until ctx
// is done.
func (m *MetricsHelper) StartPush(ctx context.Context, gateway string, interval time.Duration) {
	pusher := push.New(gateway, "eggie_poll").Gatherer(m.Registry)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := pusher.AddContext(ctx); err != nil {
					logger.Warn("prometheus pusher push failed", zap.Error(err))
				}
			}
		}
	}()
}

// The observe helpers are nil-safe so a poller built without metrics pays
// nothing.

func (m *MetricsHelper) observeCtl(op Op) {
	if m == nil {
		return
	}
	m.CtlCounter.WithLabelValues(op.String()).Inc()
}

func (m *MetricsHelper) observeWait(start time.Time, ready int, err error) {
	if m == nil {
		return
	}
	m.WaitCounter.Inc()
	m.WaitHistogram.Observe(time.Since(start).Seconds())
	m.ReadyEventsCounter.Add(float64(ready))
	if errs.GetCode(err) == errs.NativeFailureErrCode {
		m.NativeFailureCounter.Inc()
	}
}

func (m *MetricsHelper) observeDisarm() {
	if m == nil {
		return
	}
	m.OneShotDisarmCounter.Inc()
}

func (m *MetricsHelper) observeOpenSets(n int) {
	if m == nil {
		return
	}
	m.OpenSetsGauge.Set(float64(n))
}
