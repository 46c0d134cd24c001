package rental

import (
	"fmt"
	"math"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/vehicle"
)

var log = logrus.WithField("module", "rental")

// Station 租赁站
// 功能：存放租赁车辆，支持原子地租出（Rent/Leave）与归还（Enter）
type Station struct {
	id       int32
	pos      entity.Position
	capacity int

	mtx      sync.Mutex
	vehicles []entity.IVehicle
}

func (s *Station) String() string {
	return fmt.Sprintf("RentalStation{id=%d, vehicles=%d/%d}", s.id, s.Count(), s.capacity)
}

func (s *Station) ID() int32                 { return s.id }
func (s *Station) Position() entity.Position { return s.pos }
func (s *Station) Capacity() int             { return s.capacity }

// Count 站内车辆数
func (s *Station) Count() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.vehicles)
}

// Empty 无可租车辆
func (s *Station) Empty() bool {
	return s.Count() == 0
}

// HasFreeCapacity 可归还车辆
func (s *Station) HasFreeCapacity() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.vehicles) < s.capacity
}

// Enter 归还车辆，满位时返回false
func (s *Station) Enter(v entity.IVehicle) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if lo.Contains(s.vehicles, v) {
		return true
	}
	if len(s.vehicles) >= s.capacity {
		return false
	}
	s.vehicles = append(s.vehicles, v)
	v.SetParkingSpace(s)
	v.SetPosition(s.pos)
	return true
}

// Leave 租出指定车辆
func (s *Station) Leave(v entity.IVehicle) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if !lo.Contains(s.vehicles, v) {
		return false
	}
	s.vehicles = lo.Without(s.vehicles, v)
	v.SetParkingSpace(nil)
	return true
}

// Rent 租出最早归还的车辆，无车返回nil
func (s *Station) Rent() entity.IVehicle {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if len(s.vehicles) == 0 {
		return nil
	}
	v := s.vehicles[0]
	s.vehicles = s.vehicles[1:]
	v.SetParkingSpace(nil)
	return v
}

// Layer 租赁站图层（自行车或汽车）
type Layer struct {
	kind     entity.VehicleKind
	stations []*Station
	data     map[int32]*Station
}

// NewLayer 创建租赁站图层
// 参数：kind-VehicleKind_RENTAL_BICYCLE或VehicleKind_RENTAL_CAR
func NewLayer(kind entity.VehicleKind) *Layer {
	return &Layer{
		kind:     kind,
		stations: make([]*Station, 0),
		data:     make(map[int32]*Station),
	}
}

// Kind 租赁车辆类别
func (l *Layer) Kind() entity.VehicleKind {
	return l.kind
}

// Add 加入租赁站并投放count辆车，车辆ID从firstVehicleID起连续分配
func (l *Layer) Add(id int32, pos entity.Position, capacity, count int, firstVehicleID int32) *Station {
	if _, ok := l.data[id]; ok {
		log.Panicf("duplicate rental station id %d", id)
	}
	s := &Station{
		id:       id,
		pos:      pos,
		capacity: capacity,
		vehicles: make([]entity.IVehicle, 0, capacity),
	}
	for i := 0; i < count && i < capacity; i++ {
		s.Enter(vehicle.New(firstVehicleID+int32(i), l.kind, pos, 0))
	}
	l.stations = append(l.stations, s)
	l.data[id] = s
	return s
}

// Get 根据ID查找租赁站
func (l *Layer) Get(id int32) (*Station, error) {
	if s, ok := l.data[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("no id %d in rental station data", id)
}

// Stations 全部租赁站
func (l *Layer) Stations() []*Station {
	return l.stations
}

// Nearest 满足predicate的最近租赁站，无则返回nil
func (l *Layer) Nearest(position entity.Position, predicate func(entity.IRentalStation) bool) entity.IRentalStation {
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
