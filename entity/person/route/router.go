package route

import (
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/config"
)

// composer 单一出行方式的行程构造器，失败时返回分类错误
type composer func(t entity.ITraveler, start, goal entity.Position) ([]Leg, error)

// Options 路径规划参数
type Options struct {
	MaxStationAttempts int // 资源检索排除重试次数
	FallbackHops       int // 最快路无解时起终点附近放宽检索的节点数
	Speeds             Speeds
}

// DefaultOptions 默认路径规划参数
func DefaultOptions() Options {
	return Options{
		MaxStationAttempts: config.DefaultMaxStationAttempts,
		FallbackHops:       config.DefaultFallbackHops,
		Speeds:             DefaultSpeeds(),
	}
}

// OptionsFromConfig 由配置生成路径规划参数（速度由km/h换算为m/s）
func OptionsFromConfig(c config.Routing) Options {
	o := DefaultOptions()
	if c.MaxStationAttempts > 0 {
		o.MaxStationAttempts = c.MaxStationAttempts
	}
	if c.FallbackHops > 0 {
		o.FallbackHops = c.FallbackHops
	}
	if c.WalkingSpeed > 0 {
		o.Speeds.Walking = c.WalkingSpeed / 3.6
	}
	for m, v := range map[entity.Mode]float64{
		entity.Mode_BUS:   c.TransitSpeed.Bus,
		entity.Mode_TRAIN: c.TransitSpeed.Train,
		entity.Mode_FERRY: c.TransitSpeed.Ferry,
	} {
		if v > 0 {
			o.Speeds.Transit[m] = v / 3.6
		}
	}
	return o
}

// IObserver 路径规划结果的观察者（指标统计）
type IObserver interface {
	// 每次按方式构造行程后调用，err为nil表示成功
	ObserveCompose(mode entity.Mode, err error)
	// 降级为步行时调用
	ObserveFallback(requested entity.Mode, reason error)
}

// Router 多方式路径规划器
// 功能：按请求方式分派到对应的行程构造器，失败时降级为步行
// 说明：只读访问空间图与资源图层，可被多个出行者并发调用
type Router struct {
	graph     entity.ISpatialGraph
	layers    *entity.Layers
	opts      Options
	observer  IObserver
	composers map[entity.Mode]composer
}

// NewRouter 创建路径规划器
// 参数：graph-空间图，layers-资源图层（可为nil），opts-规划参数，observer-观察者（可为nil）
func NewRouter(graph entity.ISpatialGraph, layers *entity.Layers, opts Options, observer IObserver) *Router {
	if opts.MaxStationAttempts <= 0 {
		opts.MaxStationAttempts = config.DefaultMaxStationAttempts
	}
	if opts.Speeds.Walking <= 0 {
		opts.Speeds = DefaultSpeeds()
	}
	if layers == nil {
		layers = &entity.Layers{}
	}
	r := &Router{
		graph:    graph,
		layers:   layers,
		opts:     opts,
		observer: observer,
	}
	r.composers = map[entity.Mode]composer{
		entity.Mode_WALKING:             r.composeWalking,
		entity.Mode_CYCLING_OWN_BIKE:    r.composeOwnCycling,
		entity.Mode_CYCLING_RENTAL_BIKE: r.composeRentalCycling,
		entity.Mode_CAR_DRIVING:         r.composeDriving,
		entity.Mode_CAR_RENTAL_DRIVING:  r.composeRentalDriving,
		entity.Mode_BUS:                 r.transitComposer(entity.Mode_BUS),
		entity.Mode_TRAIN:               r.transitComposer(entity.Mode_TRAIN),
		entity.Mode_FERRY:               r.transitComposer(entity.Mode_FERRY),
	}
	return r
}

// Options 路径规划参数
func (r *Router) Options() Options {
	return r.opts
}

// Compose 按单一方式构造行程，不降级
// 返回：行程或分类错误（见errors.go）
func (r *Router) Compose(t entity.ITraveler, start, goal entity.Position, mode entity.Mode) (*Itinerary, error) {
	legs, err := r.compose(t, start, goal, mode)
	if r.observer != nil {
		r.observer.ObserveCompose(mode, err)
	}
	if err != nil {
		return nil, err
	}
	return r.newItinerary(start, goal, mode, legs), nil
}

func (r *Router) compose(t entity.ITraveler, start, goal entity.Position, mode entity.Mode) ([]Leg, error) {
	if !t.Capabilities().Has(mode) {
		return nil, newError(mode, ErrCapabilityMissing, "person %d", t.ID())
	}
	c, ok := r.composers[mode]
	if !ok {
		return nil, newError(mode, ErrCapabilityMissing, "no composer")
	}
	return c(t, start, goal)
}

// ComposeLegs 按单一方式构造剩余行程段（中途重规划），不降级
func (r *Router) ComposeLegs(t entity.ITraveler, start, goal entity.Position, mode entity.Mode) ([]Leg, error) {
	legs, err := r.compose(t, start, goal, mode)
	if r.observer != nil {
		r.observer.ObserveCompose(mode, err)
	}
	return legs, err
}

// WalkingLegs 步行剩余行程段，空间图无法连通时为直线步行
func (r *Router) WalkingLegs(t entity.ITraveler, start, goal entity.Position) []Leg {
	legs, err := r.composeWalking(t, start, goal)
	if err != nil {
		log.Warnf("person %d: walking composition failed, use straight line: %v", t.ID(), err)
		return straightLine(start, goal)
	}
	return legs
}

func (r *Router) newItinerary(start, goal entity.Position, mode entity.Mode, legs []Leg) *Itinerary {
	it := NewItinerary(start, goal, mode, legs...)
	it.speeds = r.opts.Speeds
	return it
}

// fallback 降级为步行的行程
func (r *Router) fallback(t entity.ITraveler, start, goal entity.Position, requested entity.Mode, reason error) *Itinerary {
	log.Debugf("person %d: %v unavailable, fallback to walking: %v", t.ID(), requested, reason)
	if r.observer != nil {
		r.observer.ObserveFallback(requested, reason)
	}
	it := r.newItinerary(start, goal, requested, r.WalkingLegs(t, start, goal))
	it.fallback = reason
	return it
}

// Search 按请求方式规划行程
// 功能：调用对应的行程构造器，失败时降级为步行并记录原因
// 返回：总是返回非nil行程
func (r *Router) Search(t entity.ITraveler, start, goal entity.Position, mode entity.Mode) *Itinerary {
	it, err := r.Compose(t, start, goal, mode)
	if err != nil {
		return r.fallback(t, start, goal, mode, err)
	}
	return it
}

// SearchAny 在多个候选方式中选择预计出行时间最短的行程
// 算法说明：
// 1. 逐个方式构造行程，失败者不参与比较
// 2. 严格小于时替换，时间相同保留先出现者
// 3. 全部失败时降级为步行，原因为最后一个错误
func (r *Router) SearchAny(t entity.ITraveler, start, goal entity.Position, modes []entity.Mode) *Itinerary {
	var best *Itinerary
	bestTime := math.Inf(1)
	var lastErr error
	for _, m := range modes {
		it, err := r.Compose(t, start, goal, m)
		if err != nil {
			lastErr = err
			continue
		}
		if tt := it.ExpectedTravelTime(t); tt < bestTime {
			best, bestTime = it, tt
		}
	}
	if best != nil {
		return best
	}
	requested := entity.Mode_WALKING
	if len(modes) > 0 {
		requested = modes[0]
	}
	if lastErr == nil {
		lastErr = newError(requested, ErrCapabilityMissing, "no candidate mode")
	}
	return r.fallback(t, start, goal, requested, lastErr)
}

// ResolveModes 过滤出具备能力的请求方式，去重并保持顺序；结果为空时为步行
func ResolveModes(caps entity.Capabilities, requested []entity.Mode) []entity.Mode {
	modes := lo.Uniq(lo.Filter(requested, func(m entity.Mode, _ int) bool { return caps.Has(m) }))
	if len(modes) == 0 {
		return []entity.Mode{entity.Mode_WALKING}
	}
	return modes
}
