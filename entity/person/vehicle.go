package person

import (
	"math"
)

const (
	minEdgeSpeed = .01 // 低于该值的边限速视为未设置
)

// updateVehicle 驾驶或骑行前进
// 功能：以交通工具最大速度与当前边限速中的较小者前进，交通工具位置随之更新
// 参数：dt-时间步长
func (p *Person) updateVehicle(dt float64) {
	v := p.runtime.Active.Vehicle
	r := p.runtime.Route
	speed := v.MaxSpeed()
	if e := r.CurrentEdge(); e != nil && e.MaxSpeed() > minEdgeSpeed {
		speed = math.Min(speed, e.MaxSpeed())
	}
	ds := r.Move(speed * dt)
	p.runtime.Position = r.CurrentPosition()
	p.runtime.V = ds / dt
	v.SetPosition(p.runtime.Position)
	p.place(v)
	p.m.recordRunning(dt, ds)
}

// updatePassenger 乘车：位置跟随公共交通车辆
func (p *Person) updatePassenger() {
	p.runtime.Position = p.runtime.Transit.Position()
}
