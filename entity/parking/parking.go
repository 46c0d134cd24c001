package parking

import (
	"fmt"
	"math"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/randengine"
)

var log = logrus.WithField("module", "parking")

// Lot 停车场
// 说明：Enter/Leave在锁内完成容量检查与占用，保证多个出行者竞争时不超容量
type Lot struct {
	id       int32
	pos      entity.Position
	capacity int

	mtx      sync.Mutex
	vehicles map[entity.IVehicle]struct{}
	reserved int // 背景占用（非仿真车辆）
}

func (l *Lot) String() string {
	return fmt.Sprintf("Lot{id=%d, occupied=%d/%d}", l.id, l.Occupied(), l.capacity)
}

func (l *Lot) ID() int32                 { return l.id }
func (l *Lot) Position() entity.Position { return l.pos }
func (l *Lot) Capacity() int             { return l.capacity }

// Occupied 已占用车位数
func (l *Lot) Occupied() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.vehicles) + l.reserved
}

func (l *Lot) HasFreeCapacity() bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.vehicles)+l.reserved < l.capacity
}

// Enter 车辆停入，满位时返回false
func (l *Lot) Enter(v entity.IVehicle) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if _, ok := l.vehicles[v]; ok {
		return true
	}
	if len(l.vehicles)+l.reserved >= l.capacity {
		return false
	}
	l.vehicles[v] = struct{}{}
	v.SetParkingSpace(l)
	v.SetPosition(l.pos)
	return true
}

// Leave 车辆驶离，车辆不在场内时返回false
func (l *Lot) Leave(v entity.IVehicle) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if _, ok := l.vehicles[v]; !ok {
		return false
	}
	delete(l.vehicles, v)
	v.SetParkingSpace(nil)
	return true
}

func (l *Lot) setReserved(n int) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.reserved = lo.Clamp(n, 0, l.capacity-len(l.vehicles))
}

// Layer 停车场图层（汽车或自行车）
type Layer struct {
	kind entity.VehicleKind
	lots []*Lot
	data map[int32]*Lot
}

// NewLayer 创建停车场图层
// 参数：kind-停放的个人交通工具类别（VehicleKind_OWN_CAR或VehicleKind_OWN_BICYCLE）
func NewLayer(kind entity.VehicleKind) *Layer {
	return &Layer{
		kind: kind,
		lots: make([]*Lot, 0),
		data: make(map[int32]*Lot),
	}
}

// Add 加入停车场，ID重复时panic
func (l *Layer) Add(id int32, pos entity.Position, capacity int) *Lot {
	if _, ok := l.data[id]; ok {
		log.Panicf("duplicate parking lot id %d", id)
	}
	lot := &Lot{
		id:       id,
		pos:      pos,
		capacity: capacity,
		vehicles: make(map[entity.IVehicle]struct{}),
	}
	l.lots = append(l.lots, lot)
	l.data[id] = lot
	return lot
}

// Get 根据ID查找停车场
func (l *Layer) Get(id int32) (*Lot, error) {
	if lot, ok := l.data[id]; ok {
		return lot, nil
	}
	return nil, fmt.Errorf("no id %d in parking data", id)
}

// Lots 全部停车场
func (l *Layer) Lots() []*Lot {
	return l.lots
}

// Nearest 满足predicate的最近停车场，无则返回nil
func (l *Layer) Nearest(position entity.Position, predicate func(entity.IResource) bool) entity.IResource {
	if lot := l.nearest(position, predicate); lot != nil {
		return lot
	}
	return nil
}

func (l *Layer) nearest(position entity.Position, predicate func(entity.IResource) bool) *Lot {
	var best *Lot
	bestDistance := math.Inf(1)
	for _, lot := range l.lots {
		if predicate != nil && !predicate(lot) {
			continue
		}
		if d := entity.Distance(position, lot.pos); d < bestDistance {
			best, bestDistance = lot, d
		}
	}
	return best
}

// UpdateOccupancy 按比例随机设置每个停车场的背景占用
// 参数：percent-占用比例[0,1]，rng-随机数引擎
// 算法说明：每个车位以percent的概率被占用，已停放的仿真车辆不受影响
func (l *Layer) UpdateOccupancy(percent float64, rng *randengine.Engine) {
	for _, lot := range l.lots {
		n := 0
		for i := 0; i < lot.capacity; i++ {
			if rng.PTrue(percent) {
				n++
			}
		}
		lot.setReserved(n)
	}
	log.Infof("parking occupancy updated to %.2f for %d lots", percent, len(l.lots))
}

// CreateOwnCarNear 在position附近radius内最近的空闲停车场中停放一辆新的个人交通工具
// 返回：新交通工具，radius内无空位时返回error
func (l *Layer) CreateOwnCarNear(id int32, position entity.Position, radius float64) (*vehicle.Vehicle, error) {
	for {
		lot := l.nearest(position, func(r entity.IResource) bool {
			return r.HasFreeCapacity() && (radius <= 0 || entity.Distance(position, r.Position()) <= radius)
		})
		if lot == nil {
			return nil, fmt.Errorf("no free parking lot within %.0f of %v", radius, position)
		}
		v := vehicle.New(id, l.kind, lot.pos, 0)
		if lot.Enter(v) {
			return v, nil
		}
	}
}
