package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dat"

var loadBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

// Collectors prometheus 实现的 Reporter
type Collectors struct {
	drivesOpen     prometheus.Gauge
	drivesSwarming prometheus.Gauge
	events         *prometheus.CounterVec
	loadDuration   prometheus.Histogram
	loadErrors     prometheus.Counter
}

var _ Reporter = (*Collectors)(nil)

// NewCollectors 创建并注册指标
//
// reg 为 nil 时指标不注册，仍可正常使用。
func NewCollectors(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		drivesOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drives_open",
			Help:      "Number of drive handles held by the manager.",
		}),
		drivesSwarming: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drives_swarming",
			Help:      "Number of drive handles currently in the swarm.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manager_events_total",
			Help:      "Manager events by kind.",
		}, []string{"event"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent constructing and readying drives.",
			Buckets:   loadBuckets,
		}),
		loadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Number of failed drive loads.",
		}),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{c.drivesOpen, c.drivesSwarming, c.events, c.loadDuration, c.loadErrors} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DriveOpened 实现 Reporter
func (c *Collectors) DriveOpened() { c.drivesOpen.Inc() }

// DriveClosed 实现 Reporter
func (c *Collectors) DriveClosed() { c.drivesOpen.Dec() }

// SwarmJoined 实现 Reporter
func (c *Collectors) SwarmJoined() { c.drivesSwarming.Inc() }

// SwarmLeft 实现 Reporter
func (c *Collectors) SwarmLeft() { c.drivesSwarming.Dec() }

// Event 实现 Reporter
func (c *Collectors) Event(name string) { c.events.WithLabelValues(name).Inc() }

// ObserveLoad 实现 Reporter
func (c *Collectors) ObserveLoad(d time.Duration, err error) {
	c.loadDuration.Observe(d.Seconds())
	if err != nil {
		c.loadErrors.Inc()
	}
}
