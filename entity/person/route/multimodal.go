package route

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

// Leg 行程段：单一方式路径+出行方式，创建后不可变，只会被整体替换
type Leg struct {
	Route *entity.Route
	Mode  entity.Mode

	// 规划时假定的段终点资源（停车场、还车站），无则nil
	Resource entity.IResource
	// 公共交通段规划时假定的下车站，无则nil
	Station entity.IStation
}

// Empty 空段（无路径或路径无边）
func (l Leg) Empty() bool {
	return l.Route.Empty()
}

func (l Leg) String() string {
	return fmt.Sprintf("Leg{%v, %.1fm}", l.Mode, l.Route.Length())
}

// Itinerary 多方式行程：有序行程段+游标
// 功能：由路径规划构造，之后只通过Advance、ReplaceSuffix与ReplaceCurrent修改，归属于唯一的出行者
// 说明：游标指向当前段，finished表示最后一段已完成；空行程立即视为到达终点
type Itinerary struct {
	start, goal entity.Position
	requested   entity.Mode // 请求的出行方式
	legs        []Leg
	cursor      int
	finished    bool

	speeds   Speeds
	fallback error // 降级为步行的原因，按请求方式规划成功时为nil
}

// NewItinerary 创建行程，游标位于第一段
func NewItinerary(start, goal entity.Position, requested entity.Mode, legs ...Leg) *Itinerary {
	return &Itinerary{
		start:     start,
		goal:      goal,
		requested: requested,
		legs:      append([]Leg{}, legs...),
		speeds:    DefaultSpeeds(),
	}
}

func (it *Itinerary) String() string {
	return fmt.Sprintf("Itinerary{requested=%v, legs=[%s], cursor=%d, finished=%v}",
		it.requested, it.ModesString(), it.cursor, it.finished)
}

// Start 行程起点（精确坐标）
func (it *Itinerary) Start() entity.Position { return it.start }

// Goal 行程终点（精确坐标）
func (it *Itinerary) Goal() entity.Position { return it.goal }

// Requested 请求的出行方式
func (it *Itinerary) Requested() entity.Mode { return it.requested }

// FallbackReason 降级为步行的原因
func (it *Itinerary) FallbackReason() error { return it.fallback }

// Len 段数
func (it *Itinerary) Len() int { return len(it.legs) }

// Legs 全部段（副本）
func (it *Itinerary) Legs() []Leg {
	return append([]Leg{}, it.legs...)
}

// Cursor 当前段下标
func (it *Itinerary) Cursor() int { return it.cursor }

// CurrentLeg 当前段，空行程返回零值
func (it *Itinerary) CurrentLeg() Leg {
	if len(it.legs) == 0 {
		return Leg{Mode: entity.Mode_WALKING}
	}
	return it.legs[it.cursor]
}

// CurrentMode 当前段的出行方式，空行程为步行
func (it *Itinerary) CurrentMode() entity.Mode {
	return it.CurrentLeg().Mode
}

// HasNext 当前段之后是否还有段
func (it *Itinerary) HasNext() bool {
	return !it.finished && it.cursor+1 < len(it.legs)
}

// NextLeg 当前段之后的一段，无则返回零值与false
func (it *Itinerary) NextLeg() (Leg, bool) {
	if !it.HasNext() {
		return Leg{}, false
	}
	return it.legs[it.cursor+1], true
}

// Advance 游标前移；位于最后一段时标记完成，完成后为空操作
func (it *Itinerary) Advance() {
	if it.finished {
		return
	}
	if it.cursor+1 < len(it.legs) {
		it.cursor++
	} else {
		it.finished = true
	}
}

// ReplaceSuffix 丢弃当前段之后的所有段，追加新段，游标移到第一个新段
// 说明：newLegs为空时行程在当前段结束
func (it *Itinerary) ReplaceSuffix(newLegs []Leg) {
	if len(it.legs) == 0 {
		it.legs = append([]Leg{}, newLegs...)
		it.cursor = 0
		it.finished = len(newLegs) == 0
		return
	}
	it.legs = append(it.legs[:it.cursor+1:it.cursor+1], newLegs...)
	if len(newLegs) > 0 {
		it.cursor++
		it.finished = false
	} else {
		it.finished = true
	}
}

// ReplaceCurrent 丢弃当前段（尚未进入）及之后的所有段，追加新段，游标指向第一个新段
// 说明：newLegs为空时行程在上一段结束
func (it *Itinerary) ReplaceCurrent(newLegs []Leg) {
	if it.cursor == 0 || len(it.legs) == 0 {
		it.legs = append([]Leg{}, newLegs...)
		it.cursor = 0
		it.finished = len(newLegs) == 0
		return
	}
	it.legs = append(it.legs[:it.cursor:it.cursor], newLegs...)
	if len(newLegs) > 0 {
		it.finished = false
	} else {
		it.cursor--
		it.finished = true
	}
}

// GoalReached 是否已到达终点
func (it *Itinerary) GoalReached() bool {
	return len(it.legs) == 0 || it.finished
}

// PassedLegCount 已完成的段数
func (it *Itinerary) PassedLegCount() int {
	if len(it.legs) == 0 {
		return 0
	}
	if it.finished {
		return len(it.legs)
	}
	return it.cursor
}

// TotalLength 全部段长度之和
func (it *Itinerary) TotalLength() float64 {
	return lo.SumBy(it.legs, func(l Leg) float64 { return l.Route.Length() })
}

// Modes 各段出行方式
func (it *Itinerary) Modes() []entity.Mode {
	return lo.Map(it.legs, func(l Leg, _ int) entity.Mode { return l.Mode })
}

// ModesString 各段出行方式，以逗号连接
func (it *Itinerary) ModesString() string {
	return strings.Join(lo.Map(it.legs, func(l Leg, _ int) string { return l.Mode.String() }), ",")
}

// DominantMode 出现次数最多的非步行方式，并列时取先出现者；无非步行段时为步行
func (it *Itinerary) DominantMode() entity.Mode {
	counts := make(map[entity.Mode]int)
	dominant, best := entity.Mode_WALKING, 0
	for _, l := range it.legs {
		if l.Mode == entity.Mode_WALKING {
			continue
		}
		counts[l.Mode]++
		if counts[l.Mode] > best {
			dominant, best = l.Mode, counts[l.Mode]
		}
	}
	return dominant
}

// MainModeLength 主要方式各段的长度之和
func (it *Itinerary) MainModeLength() float64 {
	mode := it.DominantMode()
	return lo.SumBy(it.legs, func(l Leg) float64 {
		if l.Mode != mode {
			return 0
		}
		return l.Route.Length()
	})
}

// SwitchPointDistances 相邻两段间换乘点的直线距离（前一段终点到后一段起点）
func (it *Itinerary) SwitchPointDistances() []float64 {
	if len(it.legs) < 2 {
		return []float64{}
	}
	distances := make([]float64, 0, len(it.legs)-1)
	for i := 1; i < len(it.legs); i++ {
		distances = append(distances, entity.Distance(it.legs[i-1].Route.Goal(), it.legs[i].Route.Start()))
	}
	return distances
}

// ExpectedTravelTime 预计出行时间（秒）
// 参数：t-出行者，提供偏好步行速度
func (it *Itinerary) ExpectedTravelTime(t entity.ITraveler) float64 {
	walking := it.speeds.Walking
	if t != nil && t.WalkingSpeed() > 0 {
		walking = t.WalkingSpeed()
	}
	return lo.SumBy(it.legs, func(l Leg) float64 {
		return it.speeds.legTime(l, walking)
	})
}
