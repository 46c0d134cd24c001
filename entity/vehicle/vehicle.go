package vehicle

import (
	"fmt"
	"sync"

	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

// 默认最高速度（米/秒）
const (
	DefaultCarSpeed     = 50 / 3.6
	DefaultBicycleSpeed = 4.0
)

// Vehicle 可驾驶的交通工具：自有/租赁的汽车与自行车
// 说明：驾驶员占用与停放位置由互斥锁保护
type Vehicle struct {
	id       int32
	kind     entity.VehicleKind
	maxSpeed float64

	mtx    sync.Mutex
	pos    entity.Position
	space  entity.IResource
	driver any
}

// New 创建交通工具，maxSpeed<=0时按类别使用默认速度
func New(id int32, kind entity.VehicleKind, pos entity.Position, maxSpeed float64) *Vehicle {
	if maxSpeed <= 0 {
		switch kind {
		case entity.VehicleKind_OWN_BICYCLE, entity.VehicleKind_RENTAL_BICYCLE:
			maxSpeed = DefaultBicycleSpeed
		default:
			maxSpeed = DefaultCarSpeed
		}
	}
	return &Vehicle{id: id, kind: kind, pos: pos, maxSpeed: maxSpeed}
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle{id=%d, kind=%v}", v.id, v.kind)
}

func (v *Vehicle) ID() int32                { return v.id }
func (v *Vehicle) Kind() entity.VehicleKind { return v.kind }
func (v *Vehicle) MaxSpeed() float64        { return v.maxSpeed }

func (v *Vehicle) Position() entity.Position {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.pos
}

func (v *Vehicle) SetPosition(p entity.Position) {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	v.pos = p
}

func (v *Vehicle) ParkingSpace() entity.IResource {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.space
}

func (v *Vehicle) SetParkingSpace(r entity.IResource) {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	v.space = r
}

// TryEnterDriver 占用驾驶位，已被他人占用时返回false，重复占用返回true
func (v *Vehicle) TryEnterDriver(driver any) bool {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	if v.driver != nil {
		return v.driver == driver
	}
	v.driver = driver
	return true
}

// LeaveDriver 释放驾驶位，非当前驾驶员时返回false
func (v *Vehicle) LeaveDriver(driver any) bool {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	if v.driver == nil || v.driver != driver {
		return false
	}
	v.driver = nil
	return true
}

func (v *Vehicle) Driver() any {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.driver
}
