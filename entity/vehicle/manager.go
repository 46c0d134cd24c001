package vehicle

import (
	"fmt"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

var _ entity.ITransitManager = (*Manager)(nil)

// Manager 公共交通车队管理器
// 功能：保存所有公共交通车辆，每步并行推进车辆运行
type Manager struct {
	data     map[int32]*TransitVehicle
	vehicles []*TransitVehicle
}

// NewManager 创建车队管理器
func NewManager(vehicles []*TransitVehicle) *Manager {
	m := &Manager{
		data:     make(map[int32]*TransitVehicle),
		vehicles: vehicles,
	}
	for _, v := range vehicles {
		if _, ok := m.data[v.id]; ok {
			log.Panicf("duplicate transit vehicle id %d", v.id)
		}
		m.data[v.id] = v
	}
	return m
}

// Vehicles 全部车辆
func (m *Manager) Vehicles() []*TransitVehicle {
	return m.vehicles
}

// GetOrError 根据ID查找车辆
func (m *Manager) GetOrError(id int32) (entity.ITransitVehicle, error) {
	if v, ok := m.data[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no id %d in transit vehicle data", id)
}

// Update 更新阶段
func (m *Manager) Update(dt float64) {
	parallel.GoFor(m.vehicles, func(v *TransitVehicle) { v.Update(dt) })
}

// PassengerCount 车上乘客总数
func (m *Manager) PassengerCount() int {
	return lo.SumBy(m.vehicles, func(v *TransitVehicle) int { return v.PassengerCount() })
}
