package station

import (
	"fmt"
	"math"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

var log = logrus.WithField("module", "station")

// DefaultFindRadius 车辆后续停靠站与乘客目标的最大匹配距离（米）
const DefaultFindRadius = 25.

// Station 公共交通车站
// 说明：记录途经线路与当前停靠的车辆
type Station struct {
	id    int32
	name  string
	pos   entity.Position
	lines []int32
	layer *Layer

	mtx    sync.Mutex
	docked []entity.ITransitVehicle
}

func (s *Station) String() string {
	return fmt.Sprintf("Station{id=%d, name=%s, lines=%v}", s.id, s.name, s.lines)
}

func (s *Station) ID() int32                 { return s.id }
func (s *Station) Name() string              { return s.name }
func (s *Station) Position() entity.Position { return s.pos }
func (s *Station) Lines() []int32            { return s.lines }

func (s *Station) Dock(v entity.ITransitVehicle) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if !lo.Contains(s.docked, v) {
		s.docked = append(s.docked, v)
	}
}

func (s *Station) Undock(v entity.ITransitVehicle) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.docked = lo.Without(s.docked, v)
}

// Docked 当前停靠的车辆
func (s *Station) Docked() []entity.ITransitVehicle {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return append([]entity.ITransitVehicle{}, s.docked...)
}

// Find 查找停靠中、本方向后续停靠站经过goal的车辆
// 说明：有多辆时选择后续停靠站离goal最近者，并列时先停靠者优先
func (s *Station) Find(goal entity.Position) entity.ITransitVehicle {
	var best entity.ITransitVehicle
	bestDistance := math.Inf(1)
	for _, v := range s.Docked() {
		for _, stop := range v.RemainingStops() {
			d := entity.Distance(stop, goal)
			if d <= s.layer.findRadius && d < bestDistance {
				best, bestDistance = v, d
			}
		}
	}
	return best
}

// Layer 某一公共交通方式（公交、轨道、渡轮）的车站图层
type Layer struct {
	mode       entity.Mode
	findRadius float64
	stations   []*Station
	data       map[int32]*Station
}

// NewLayer 创建车站图层，findRadius<=0时使用默认值
func NewLayer(mode entity.Mode, findRadius float64) *Layer {
	if findRadius <= 0 {
		findRadius = DefaultFindRadius
	}
	return &Layer{
		mode:       mode,
		findRadius: findRadius,
		stations:   make([]*Station, 0),
		data:       make(map[int32]*Station),
	}
}

// Mode 图层对应的出行方式
func (l *Layer) Mode() entity.Mode {
	return l.mode
}

// Add 加入车站，ID重复时panic
func (l *Layer) Add(id int32, name string, pos entity.Position, lines ...int32) *Station {
	if _, ok := l.data[id]; ok {
		log.Panicf("duplicate %v station id %d", l.mode, id)
	}
	s := &Station{
		id:     id,
		name:   name,
		pos:    pos,
		lines:  lo.Uniq(lines),
		layer:  l,
		docked: make([]entity.ITransitVehicle, 0),
	}
	l.stations = append(l.stations, s)
	l.data[id] = s
	return s
}

// Get 根据ID查找车站
func (l *Layer) Get(id int32) (*Station, error) {
	if s, ok := l.data[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("no id %d in %v station data", id, l.mode)
}

func (l *Layer) Stations() []entity.IStation {
	return lo.Map(l.stations, func(s *Station, _ int) entity.IStation { return s })
}

// Nearest 满足predicate的最近车站，无则返回nil
func (l *Layer) Nearest(position entity.Position, predicate func(entity.IStation) bool) entity.IStation {
	var best *Station
	bestDistance := math.Inf(1)
	for _, s := range l.stations {
		if predicate != nil && !predicate(s) {
			continue
		}
		if d := entity.Distance(position, s.pos); d < bestDistance {
			best, bestDistance = s, d
		}
	}
	if best == nil {
		return nil
	}
	return best
}

func (l *Layer) LinesServed(s entity.IStation) map[int32]struct{} {
	return lo.SliceToMap(s.Lines(), func(line int32) (int32, struct{}) { return line, struct{}{} })
}
