package route

import (
	"math"

	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

const (
	// 驾驶时每条边的路口延误（秒）
	IntersectionPenalty = 10.
	// 驾驶时低于此值的限速视为未设置（米/秒）
	speedLimitEpsilon = 0.01
)

// Speeds 预计出行时间使用的各方式假定速度（米/秒）
type Speeds struct {
	Walking      float64
	Cycling      float64
	DrivingFloor float64 // 驾驶最低速度
	Transit      map[entity.Mode]float64
}

// DefaultSpeeds 默认假定速度：步行5km/h，骑行20km/h，驾驶不低于30km/h，公交30km/h，轨道50km/h，渡轮20km/h
func DefaultSpeeds() Speeds {
	return Speeds{
		Walking:      5 / 3.6,
		Cycling:      20 / 3.6,
		DrivingFloor: 30 / 3.6,
		Transit: map[entity.Mode]float64{
			entity.Mode_BUS:   30 / 3.6,
			entity.Mode_TRAIN: 50 / 3.6,
			entity.Mode_FERRY: 20 / 3.6,
		},
	}
}

// legTime 单段预计时间（秒）
// 驾驶：Σ(边长/max(限速, 最低速度) + 路口延误)；其余方式：长度/假定速度
func (s Speeds) legTime(l Leg, walking float64) float64 {
	switch {
	case l.Mode == entity.Mode_WALKING:
		return l.Route.Length() / walking
	case l.Mode.IsCycling():
		return l.Route.Length() / s.Cycling
	case l.Mode.IsDriving():
		total := 0.
		for _, e := range l.Route.Edges() {
			limit := math.Abs(e.MaxSpeed())
			if limit <= speedLimitEpsilon {
				limit = 0
			}
			total += e.Length()/math.Max(limit, s.DrivingFloor) + IntersectionPenalty
		}
		return total
	case l.Mode.IsTransit():
		v, ok := s.Transit[l.Mode]
		if !ok || v <= 0 {
			v = s.DrivingFloor
		}
		return l.Route.Length() / v
	}
	return l.Route.Length() / walking
}
