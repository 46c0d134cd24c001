package person

import (
	"errors"
	"fmt"

	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/route"
)

var (
	// 车站暂无开往目的地的车辆或车辆满载，下一步重试
	errWaiting = errors.New("waiting for transit vehicle")
	// 行程段为空或已走完
	errInvalidLeg = errors.New("empty or completed leg")
	// 未到达行程段终点时被终点站强制下车
	errTerminal = fmt.Errorf("terminal station before leg goal: %w", route.ErrNoConnectingRoute)
)

func occupied(mode entity.Mode, format string, args ...any) error {
	return &route.ComposeError{Mode: mode, Kind: route.ErrTransientOccupancy, Detail: fmt.Sprintf(format, args...)}
}

func unavailable(mode entity.Mode, format string, args ...any) error {
	return &route.ComposeError{Mode: mode, Kind: route.ErrResourceUnavailable, Detail: fmt.Sprintf(format, args...)}
}

// legGoal 行程段的终点，公共交通段以下车站为准
func legGoal(leg route.Leg) entity.Position {
	if leg.Station != nil {
		return leg.Station.Position()
	}
	return leg.Route.Goal()
}

// vehicleKindOf 出行方式使用的交通工具类别
func vehicleKindOf(mode entity.Mode) entity.VehicleKind {
	switch mode {
	case entity.Mode_CAR_DRIVING:
		return entity.VehicleKind_OWN_CAR
	case entity.Mode_CYCLING_OWN_BIKE:
		return entity.VehicleKind_OWN_BICYCLE
	case entity.Mode_CAR_RENTAL_DRIVING:
		return entity.VehicleKind_RENTAL_CAR
	case entity.Mode_CYCLING_RENTAL_BIKE:
		return entity.VehicleKind_RENTAL_BICYCLE
	}
	if mode.IsTransit() {
		return entity.VehicleKind_TRANSIT
	}
	return entity.VehicleKind_NONE
}

// enter 进入行程段
// 功能：获取该方式所需的资源并开始跟随该段路径
// 参数：leg-要进入的行程段
// 返回：失败时状态不变
// 说明：
// 1. 步行：插入空间图
// 2. 自有/租赁交通工具：以驾驶员身份占用车辆，离开停车位
// 3. 公共交通：登上停靠在附近车站、且开往该段终点的车辆
// 驾驶中重规划得到的同类交通工具段直接沿用当前车辆；
// 其他类别的交通工具在新资源获取成功后才停放，停放失败时归还新资源
func (p *Person) enter(leg route.Leg) error {
	if leg.Empty() || leg.Route.GoalReached() {
		return errInvalidLeg
	}
	kind := vehicleKindOf(leg.Mode)
	switch leg.Mode {
	case entity.Mode_WALKING:
		if err := p.park(kind); err != nil {
			return err
		}
		return p.enterWalking(leg)
	case entity.Mode_CAR_DRIVING:
		return p.enterOwnVehicle(leg, p.ownCar, kind)
	case entity.Mode_CYCLING_OWN_BIKE:
		return p.enterOwnVehicle(leg, p.ownBicycle, kind)
	case entity.Mode_CAR_RENTAL_DRIVING:
		return p.enterRental(leg, p.ctx.Layers().CarRental, kind)
	case entity.Mode_CYCLING_RENTAL_BIKE:
		return p.enterRental(leg, p.ctx.Layers().BicycleRental, kind)
	case entity.Mode_BUS, entity.Mode_TRAIN, entity.Mode_FERRY:
		return p.enterTransit(leg)
	}
	return &route.ComposeError{Mode: leg.Mode, Kind: route.ErrCapabilityMissing, Detail: "mode cannot be entered"}
}

// park 停放正在驾驶的其他类别交通工具
func (p *Person) park(kind entity.VehicleKind) error {
	if h := p.runtime.Active; !h.IsNone() && h.Kind != kind {
		return p.leaveVehicle(h)
	}
	return nil
}

func (p *Person) enterWalking(leg route.Leg) error {
	p.ctx.Graph().Insert(p, p.ctx.Graph().NearestNode(leg.Route.Start(), entity.Modality_WALKING))
	p.steer(leg, State_ON_ACCESS_WAY)
	return nil
}

// enterOwnVehicle 驾驶自有汽车或骑自有自行车
func (p *Person) enterOwnVehicle(leg route.Leg, v entity.IVehicle, kind entity.VehicleKind) error {
	if v == nil {
		return &route.ComposeError{Mode: leg.Mode, Kind: route.ErrCapabilityMissing, Detail: "no own vehicle"}
	}
	if p.runtime.Active.Vehicle == v {
		p.steer(leg, State_IN_VEHICLE)
		return nil
	}
	radius := p.ctx.RuntimeConfig().R.ParkingSearchRadius
	if d := entity.Distance(p.runtime.Position, v.Position()); d > radius {
		return occupied(leg.Mode, "vehicle %d is %.0fm away", v.ID(), d)
	}
	if !v.TryEnterDriver(p) {
		return occupied(leg.Mode, "vehicle %d has another driver", v.ID())
	}
	if err := p.park(kind); err != nil {
		v.LeaveDriver(p)
		return err
	}
	if space := v.ParkingSpace(); space != nil {
		space.Leave(v)
	}
	p.claim(leg, entity.VehicleHandle{Kind: kind, Vehicle: v})
	return nil
}

// enterRental 在附近租赁站租车
// 说明：规划时的租赁站可能已被租空，以当前位置重新检索半径内有车的租赁站
func (p *Person) enterRental(leg route.Leg, layer entity.IRentalLayer, kind entity.VehicleKind) error {
	if p.runtime.Active.Kind == kind {
		p.steer(leg, State_IN_VEHICLE)
		return nil
	}
	if layer == nil {
		return unavailable(leg.Mode, "no rental layer")
	}
	pos, radius := p.runtime.Position, p.ctx.RuntimeConfig().R.ParkingSearchRadius
	st := layer.Nearest(pos, func(s entity.IRentalStation) bool {
		return !s.Empty() && entity.Distance(pos, s.Position()) <= radius
	})
	if st == nil {
		return occupied(leg.Mode, "no rental vehicle within %.0fm", radius)
	}
	v := st.Rent()
	if v == nil {
		return occupied(leg.Mode, "rental station %d is empty", st.ID())
	}
	if !v.TryEnterDriver(p) {
		st.Enter(v)
		return occupied(leg.Mode, "rental vehicle %d has another driver", v.ID())
	}
	if err := p.park(kind); err != nil {
		v.LeaveDriver(p)
		st.Enter(v)
		return err
	}
	p.claim(leg, entity.VehicleHandle{Kind: kind, Vehicle: v})
	return nil
}

// enterTransit 在车站登车
// 说明：在车站候车前先停放正在驾驶的交通工具
func (p *Person) enterTransit(leg route.Leg) error {
	layer := p.ctx.Layers().Station(leg.Mode)
	if layer == nil {
		return unavailable(leg.Mode, "no station layer")
	}
	pos, radius := p.runtime.Position, p.ctx.RuntimeConfig().R.ParkingSearchRadius
	st := layer.Nearest(pos, func(s entity.IStation) bool {
		return entity.Distance(pos, s.Position()) <= radius
	})
	if st == nil {
		return occupied(leg.Mode, "no station within %.0fm", radius)
	}
	if err := p.park(entity.VehicleKind_TRANSIT); err != nil {
		return err
	}
	v := st.Find(legGoal(leg))
	if v == nil || !v.TryEnterPassenger(p) {
		return errWaiting
	}
	p.ctx.Graph().Remove(p)
	p.runtime.Transit = v
	p.runtime.Waiting = false
	p.runtime.Position = v.Position()
	p.steer(leg, State_IN_VEHICLE)
	return nil
}

// claim 占用交通工具并上路
func (p *Person) claim(leg route.Leg, h entity.VehicleHandle) {
	h.Vehicle.SetPosition(p.runtime.Position)
	p.ctx.Graph().Remove(p)
	p.ctx.Graph().Insert(h.Vehicle, leg.Route.StartNode())
	p.runtime.Active = h
	p.steer(leg, State_IN_VEHICLE)
}

func (p *Person) steer(leg route.Leg, state State) {
	p.runtime.Route = leg.Route
	p.runtime.State = state
}

// leave 离开行程段
// 功能：释放该方式占用的资源，回到Offside状态
// 说明：停车与还车以当前位置检索当前可用的车位，而非规划时的假设
func (p *Person) leave(leg route.Leg) error {
	switch {
	case p.runtime.Transit != nil:
		p.runtime.Transit.LeavePassenger(p)
		p.runtime.Transit = nil
	case !p.runtime.Active.IsNone():
		if err := p.leaveVehicle(p.runtime.Active); err != nil {
			return err
		}
	default:
		p.ctx.Graph().Remove(p)
	}
	p.runtime.State = State_OFFSIDE
	p.runtime.Route = nil
	p.runtime.V = 0
	return nil
}

// leaveVehicle 停放交通工具
// 算法说明：
// 1. 自有汽车：停入半径内最近的空闲车位，无车位时失败
// 2. 自有自行车：优先停入半径内的自行车停车场，否则停在路边
// 3. 租赁交通工具：归还到半径内最近的可还车租赁站，无则失败
// 失败时不改变状态
func (p *Person) leaveVehicle(h entity.VehicleHandle) error {
	mode, _ := entity.ModeOfKind(h.Kind)
	pos, radius := p.runtime.Position, p.ctx.RuntimeConfig().R.ParkingSearchRadius
	layers := p.ctx.Layers()
	within := func(r entity.IResource) bool {
		return r.HasFreeCapacity() && entity.Distance(pos, r.Position()) <= radius
	}
	h.Vehicle.SetPosition(pos)
	switch h.Kind {
	case entity.VehicleKind_OWN_CAR:
		var lot entity.IResource
		if layers.CarParking != nil {
			lot = layers.CarParking.Nearest(pos, within)
		}
		if lot == nil || !lot.Enter(h.Vehicle) {
			return occupied(mode, "no free parking within %.0fm of %v", radius, pos)
		}
	case entity.VehicleKind_OWN_BICYCLE:
		var lot entity.IResource
		if layers.BicycleParking != nil {
			lot = layers.BicycleParking.Nearest(pos, within)
		}
		if lot == nil || !lot.Enter(h.Vehicle) {
			h.Vehicle.SetParkingSpace(nil)
		}
	case entity.VehicleKind_RENTAL_BICYCLE, entity.VehicleKind_RENTAL_CAR:
		layer := layers.BicycleRental
		if h.Kind == entity.VehicleKind_RENTAL_CAR {
			layer = layers.CarRental
		}
		var st entity.IRentalStation
		if layer != nil {
			st = layer.Nearest(pos, func(s entity.IRentalStation) bool { return within(s) })
		}
		if st == nil || !st.Enter(h.Vehicle) {
			return occupied(mode, "no rental return within %.0fm of %v", radius, pos)
		}
	}
	p.detach(h)
	return nil
}

// detach 解除对交通工具的占用
func (p *Person) detach(h entity.VehicleHandle) {
	p.ctx.Graph().Remove(h.Vehicle)
	h.Vehicle.LeaveDriver(p)
	p.runtime.Active = entity.NoVehicle
	p.runtime.State = State_OFFSIDE
}

// release 强制释放全部资源，交通工具就地停放在路边
func (p *Person) release() {
	if p.runtime.Transit != nil {
		p.runtime.Transit.LeavePassenger(p)
		p.runtime.Transit = nil
	}
	if h := p.runtime.Active; !h.IsNone() {
		log.Warnf("person %d: abandon %v %d at %v", p.id, h.Kind, h.Vehicle.ID(), p.runtime.Position)
		h.Vehicle.SetPosition(p.runtime.Position)
		h.Vehicle.SetParkingSpace(nil)
		p.detach(h)
	}
	p.ctx.Graph().Remove(p)
	p.runtime.State = State_OFFSIDE
	p.runtime.Route = nil
	p.runtime.Waiting = false
}

// replan 资源被占用后从当前位置重新规划剩余行程
// 功能：以失败段的方式重新组合行程段并替换后缀，然后进入第一个新段
// 参数：mode-失败段的出行方式，cause-失败原因
// 返回：重规划次数耗尽时返回ErrTransientOccupancy，出行者步行完成剩余行程
func (p *Person) replan(mode entity.Mode, cause error) error {
	p.trip.replans++
	p.m.observeReplan(mode, cause)
	if limit := p.ctx.RuntimeConfig().R.MaxReplanAttempts; p.trip.replans > limit {
		p.walkRemainder()
		return fmt.Errorf("person %d: %w: gave up %v after %d replans: %v",
			p.id, route.ErrTransientOccupancy, mode, limit, cause)
	}
	log.Infof("person %d: %v, replan %v from %v", p.id, cause, mode, p.runtime.Position)
	legs, err := p.m.router.ComposeLegs(p, p.runtime.Position, p.itinerary.Goal(), mode)
	if err != nil {
		log.Infof("person %d: replan %v failed: %v, walk the rest", p.id, mode, err)
		p.walkRemainder()
		return nil
	}
	p.replaceRemainder(legs)
	if p.itinerary.GoalReached() {
		p.release()
		p.finishTrip()
		return nil
	}
	return p.enterTarget()
}

// walkRemainder 释放交通工具，步行完成剩余行程
func (p *Person) walkRemainder() {
	p.release()
	p.trip.forcedWalk = true
	p.replaceRemainder(p.m.router.WalkingLegs(p, p.runtime.Position, p.itinerary.Goal()))
	if p.itinerary.GoalReached() {
		p.finishTrip()
		return
	}
	if err := p.enterWalking(p.itinerary.CurrentLeg()); err != nil {
		log.Errorf("person %d: %v", p.id, err)
		return
	}
	p.trip.entered = true
}

// replaceRemainder 以新段替换剩余行程，游标指向第一个新段
// 说明：游标所在段已进入时作为已完成段保留，否则一并丢弃
func (p *Person) replaceRemainder(legs []route.Leg) {
	if p.trip.entered {
		p.itinerary.ReplaceSuffix(legs)
	} else {
		p.itinerary.ReplaceCurrent(legs)
	}
	p.trip.entered, p.trip.completed = false, false
}
