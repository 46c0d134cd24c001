package vehicle

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

// IDock 可供公共交通车辆停靠的车站
type IDock interface {
	entity.IStation
	Dock(v entity.ITransitVehicle)
	Undock(v entity.ITransitVehicle)
}

// TransitVehicle 公共交通车辆
// 功能：沿线路在车站间往返运行，停靠时可供乘客上下车，到站时通知车上乘客
// 说明：线路两端为终点站，到达终点站通知TERMINAL_STATION，其余车站通知GOAL_REACHED
type TransitVehicle struct {
	id       int32
	mode     entity.Mode
	line     int32
	capacity int
	speed    float64 // 运行速度（米/秒）
	dwell    float64 // 停站时间（秒）

	seq      []IDock          // 往返停靠序列
	terminal []bool           // seq中对应车站是否为终点站
	edges    [][]entity.IEdge // seq[i]到seq[i+1]的路径

	mtx        sync.Mutex
	cur        int // 当前停靠或驶向的车站下标
	docked     bool
	waited     float64
	route      *entity.Route
	pos        entity.Position
	passengers []entity.IPassenger
}

// NewTransitVehicle 创建公共交通车辆并停靠在首站
// 参数：stops-线路车站（单向，至少两个），g-空间图，modality-线路行驶的通行方式
func NewTransitVehicle(
	id int32, mode entity.Mode, line int32,
	stops []IDock, g entity.ISpatialGraph, modality entity.Modality,
	capacity int, speed, dwell float64,
) (*TransitVehicle, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("transit vehicle %d: line %d needs at least 2 stops", id, line)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("transit vehicle %d: capacity must be positive", id)
	}
	seq := append([]IDock{}, stops...)
	for i := len(stops) - 2; i > 0; i-- {
		seq = append(seq, stops[i])
	}
	terminal := make([]bool, len(seq))
	terminal[0], terminal[len(stops)-1] = true, true

	filter := entity.ModalityFilter(modality)
	edges := make([][]entity.IEdge, len(seq))
	for i := range seq {
		a := g.NearestNode(seq[i].Position(), modality)
		b := g.NearestNode(seq[(i+1)%len(seq)].Position(), modality)
		r := g.ShortestRoute(a, b, filter)
		if r == nil {
			return nil, fmt.Errorf("transit vehicle %d: no %v route between station %d and %d",
				id, modality, seq[i].ID(), seq[(i+1)%len(seq)].ID())
		}
		edges[i] = r.Edges()
	}
	v := &TransitVehicle{
		id:         id,
		mode:       mode,
		line:       line,
		capacity:   capacity,
		speed:      speed,
		dwell:      dwell,
		seq:        seq,
		terminal:   terminal,
		edges:      edges,
		pos:        seq[0].Position(),
		docked:     true,
		passengers: make([]entity.IPassenger, 0, capacity),
	}
	seq[0].Dock(v)
	return v, nil
}

func (v *TransitVehicle) String() string {
	return fmt.Sprintf("TransitVehicle{id=%d, mode=%v, line=%d}", v.id, v.mode, v.line)
}

func (v *TransitVehicle) ID() int32         { return v.id }
func (v *TransitVehicle) Mode() entity.Mode { return v.mode }
func (v *TransitVehicle) Line() int32       { return v.line }
func (v *TransitVehicle) Capacity() int     { return v.capacity }

func (v *TransitVehicle) Position() entity.Position {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.pos
}

func (v *TransitVehicle) PassengerCount() int {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return len(v.passengers)
}

// Docked 是否停靠中，以及停靠的车站
func (v *TransitVehicle) Docked() (entity.IStation, bool) {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	if !v.docked {
		return nil, false
	}
	return v.seq[v.cur], true
}

// RemainingStops 本方向后续停靠站（不含当前车站，含下一个终点站）
func (v *TransitVehicle) RemainingStops() []entity.Position {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	stops := make([]entity.Position, 0)
	i := v.cur
	if !v.docked {
		stops = append(stops, v.seq[i].Position())
		if v.terminal[i] {
			return stops
		}
	}
	for {
		i = (i + 1) % len(v.seq)
		stops = append(stops, v.seq[i].Position())
		if v.terminal[i] {
			return stops
		}
	}
}

// TryEnterPassenger 乘客上车，非停靠或满载时返回false
func (v *TransitVehicle) TryEnterPassenger(p entity.IPassenger) bool {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	if !v.docked || len(v.passengers) >= v.capacity {
		return false
	}
	if lo.Contains(v.passengers, p) {
		return true
	}
	v.passengers = append(v.passengers, p)
	return true
}

// LeavePassenger 乘客下车
func (v *TransitVehicle) LeavePassenger(p entity.IPassenger) bool {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	n := len(v.passengers)
	v.passengers = lo.Without(v.passengers, p)
	return len(v.passengers) < n
}

// Update 按时间步推进车辆：停站计时、行驶、到站停靠并通知乘客
func (v *TransitVehicle) Update(dt float64) {
	v.mtx.Lock()
	if v.docked {
		v.waited += dt
		if v.waited < v.dwell {
			v.mtx.Unlock()
			return
		}
		station := v.seq[v.cur]
		v.route = entity.NewRoute(v.edges[v.cur])
		v.cur = (v.cur + 1) % len(v.seq)
		v.docked = false
		v.mtx.Unlock()
		station.Undock(v)
		v.mtx.Lock()
	}
	v.route.Move(v.speed * dt)
	v.pos = v.route.CurrentPosition()
	if !v.route.GoalReached() {
		v.mtx.Unlock()
		return
	}
	station := v.seq[v.cur]
	v.pos = station.Position()
	v.docked = true
	v.waited = 0
	msg := entity.Message_GOAL_REACHED
	if v.terminal[v.cur] {
		msg = entity.Message_TERMINAL_STATION
	}
	passengers := append([]entity.IPassenger{}, v.passengers...)
	v.mtx.Unlock()

	station.Dock(v)
	log.Debugf("%v arrived at station %d, notify %d passengers %v", v, station.ID(), len(passengers), msg)
	for _, p := range passengers {
		p.Notify(msg)
	}
}
