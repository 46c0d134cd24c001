package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/route"
	"github.com/tsinghua-fib-lab/multimodal-sim/output"
)

var log = logrus.WithField("module", "metrics")

var (
	_ route.IObserver  = (*Collector)(nil)
	_ person.IObserver = (*Collector)(nil)
)

// Collector prometheus指标采集
// 功能：统计路径规划结果、步行降级、模式切换、重规划与出行结果，以及仿真步耗时
// 说明：使用独立的Registry，多个Collector互不影响
type Collector struct {
	reg *prometheus.Registry

	Compositions *prometheus.CounterVec // mode, result
	Fallbacks    *prometheus.CounterVec // requested, reason
	Transitions  *prometheus.CounterVec // mode, result
	Replans      *prometheus.CounterVec // mode, reason

	TripsFinished *prometheus.CounterVec // dominant_mode
	ForcedWalks   prometheus.Counter
	TravelTime    prometheus.Histogram // 实际出行时间（秒）
	Delay         prometheus.Histogram // 实际与预计出行时间之差（秒）

	TickDuration  prometheus.Histogram
	ActivePersons prometheus.Gauge
	SimTime       prometheus.Gauge
}

// NewCollector 创建指标采集器并注册全部指标
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		reg: reg,
		Compositions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "multimodal_compositions_total",
			Help: "Route compositions by mode and result kind.",
		}, []string{"mode", "result"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "multimodal_fallbacks_total",
			Help: "Itineraries degraded to walking by requested mode and reason.",
		}, []string{"requested", "reason"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "multimodal_transitions_total",
			Help: "Leg transitions by entered mode and result.",
		}, []string{"mode", "result"}),
		Replans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "multimodal_replans_total",
			Help: "Mid-trip replans by failed mode and reason.",
		}, []string{"mode", "reason"}),
		TripsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "multimodal_trips_finished_total",
			Help: "Finished trips by dominant mode.",
		}, []string{"dominant_mode"}),
		ForcedWalks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "multimodal_forced_walks_total",
			Help: "Trips finished on foot after replanning was exhausted.",
		}),
		TravelTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "multimodal_trip_travel_time_seconds",
			Help:    "Actual travel time of finished trips.",
			Buckets: prometheus.ExponentialBuckets(60, 2, 10),
		}),
		Delay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "multimodal_trip_delay_seconds",
			Help:    "Actual minus expected travel time of finished trips.",
			Buckets: prometheus.LinearBuckets(-600, 120, 15),
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "multimodal_tick_duration_seconds",
			Help:    "Duration of one simulation step.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		ActivePersons: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "multimodal_active_persons",
			Help: "Persons with an ongoing or pending trip.",
		}),
		SimTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "multimodal_sim_time_seconds",
			Help: "Current simulation time.",
		}),
	}
	reg.MustRegister(
		c.Compositions, c.Fallbacks, c.Transitions, c.Replans,
		c.TripsFinished, c.ForcedWalks, c.TravelTime, c.Delay,
		c.TickDuration, c.ActivePersons, c.SimTime,
	)
	return c
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

// ObserveCompose 实现route.IObserver
func (c *Collector) ObserveCompose(mode entity.Mode, err error) {
	c.Compositions.WithLabelValues(mode.String(), route.Kind(err)).Inc()
}

// ObserveFallback 实现route.IObserver
func (c *Collector) ObserveFallback(requested entity.Mode, reason error) {
	c.Fallbacks.WithLabelValues(requested.String(), route.Kind(reason)).Inc()
}

// ObserveTransition 实现person.IObserver
func (c *Collector) ObserveTransition(mode entity.Mode, ok bool) {
	c.Transitions.WithLabelValues(mode.String(), result(ok)).Inc()
}

// ObserveReplan 实现person.IObserver
func (c *Collector) ObserveReplan(mode entity.Mode, cause error) {
	c.Replans.WithLabelValues(mode.String(), route.Kind(cause)).Inc()
}

// ObserveTripEnd 实现person.IObserver
func (c *Collector) ObserveTripEnd(r *output.TripRecord) {
	c.TripsFinished.WithLabelValues(r.DominantMode).Inc()
	if r.ForcedWalk {
		c.ForcedWalks.Inc()
	}
	c.TravelTime.Observe(r.ActualTravelTime)
	c.Delay.Observe(r.ActualTravelTime - r.ExpectedTravelTime)
}

// ObserveTick 记录一个仿真步
// 参数：d-本步耗时，t-仿真时间（秒），active-未完成出行的人数
func (c *Collector) ObserveTick(d time.Duration, t float64, active int) {
	c.TickDuration.Observe(d.Seconds())
	c.SimTime.Set(t)
	c.ActivePersons.Set(float64(active))
}

// Registry 指标注册表
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Serve 在addr上启动/metrics的HTTP服务
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server error: %v", err)
		}
	}()
	log.Infof("metrics listening on %s", addr)
	return srv
}
