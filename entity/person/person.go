package person

import (
	"errors"
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/route"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/schedule"
	"github.com/tsinghua-fib-lab/multimodal-sim/output"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/container"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/randengine"
)

const (
	walkingSpeedNoise = .1 // 步行速度的相对扰动
	minWalkingSpeed   = .5 // 最小步行速度（米/秒）
)

var (
	_ entity.ITraveler      = (*Person)(nil)
	_ entity.IPassenger     = (*Person)(nil)
	_ entity.IPersonManager = (*Manager)(nil)
)

// Spec 出行者的初始化数据
type Spec struct {
	ID           int32
	Home         entity.Position
	Capabilities []entity.Mode
	WalkingSpeed float64         // 偏好步行速度（米/秒），<=0时使用配置值并加个体扰动
	OwnCar       entity.IVehicle // 无则nil
	OwnBicycle   entity.IVehicle // 无则nil
	Trips        []schedule.Trip
}

// Person 出行者实体
// 功能：按时刻表出行，消费多方式行程并在各段之间完成模式切换
type Person struct {
	container.IncrementalItemBase
	ctx entity.ITaskContext
	m   *Manager

	// 静态属性
	id           int32
	caps         entity.Capabilities
	walkingSpeed float64
	ownCar       entity.IVehicle
	ownBicycle   entity.IVehicle

	generator *randengine.Engine // 随机数生成器，以ID为seed

	runtime  runtime // 运行时数据
	snapshot runtime // 快照

	schedule  *schedule.Schedule
	itinerary *route.Itinerary // 当前出行的行程，出发前为nil
	trip      tripRuntime

	mailbox mailbox
}

// newPerson 创建并初始化一个新的Person实例
// 功能：根据初始化数据设置能力集、交通工具与时刻表，初始位置为家
// 说明：未指定步行速度时以配置的默认值为中心加入个体扰动
func newPerson(ctx entity.ITaskContext, m *Manager, spec Spec) *Person {
	p := &Person{
		ctx:        ctx,
		m:          m,
		id:         spec.ID,
		caps:       entity.NewCapabilities(spec.Capabilities...),
		ownCar:     spec.OwnCar,
		ownBicycle: spec.OwnBicycle,
		generator:  randengine.New(uint64(spec.ID)),
		runtime: runtime{
			State:    State_OFFSIDE,
			Position: spec.Home,
			Active:   entity.NoVehicle,
		},
		schedule: schedule.NewSchedule(spec.Trips, ctx.Clock().T),
	}
	p.walkingSpeed = spec.WalkingSpeed
	if p.walkingSpeed <= 0 {
		mean := ctx.RuntimeConfig().R.WalkingSpeed / 3.6
		p.walkingSpeed = math.Max(p.generator.Noise(mean, walkingSpeedNoise), minWalkingSpeed)
	}
	if p.ownCar != nil && !p.caps.Has(entity.Mode_CAR_DRIVING) {
		log.Warnf("person %d owns car %d without car_driving capability", p.id, p.ownCar.ID())
	}
	if p.ownBicycle != nil && !p.caps.Has(entity.Mode_CYCLING_OWN_BIKE) {
		log.Warnf("person %d owns bicycle %d without cycling_own_bike capability", p.id, p.ownBicycle.ID())
	}
	p.snapshot = p.runtime
	return p
}

// prepare 准备阶段，更新快照
func (p *Person) prepare() {
	p.snapshot = p.runtime
}

// Step 更新阶段，推进一个时间步
// 功能：处理车辆通知，按状态出发、步行、驾驶或乘车，到达段终点时切换到下一段
// 参数：dt-时间步长
// 返回：重规划次数耗尽时返回ErrTransientOccupancy（出行者已改为步行）
// 算法说明：
// 1. 处理上一步缓冲的车辆通知（下车、终点站强制下车）
// 2. Offside且无行程：到达出发时间则规划行程并进入第一段
// 3. Offside且有行程：候车或切换失败，重试进入
// 4. 步行/驾驶：沿当前段路径前进，到达终点后离开并进入下一段
// 5. 乘车：位置跟随车辆，下车由通知触发
func (p *Person) Step(dt float64) error {
	if err := p.handleMessages(); err != nil {
		return err
	}
	switch p.runtime.State {
	case State_OFFSIDE:
		if p.itinerary == nil {
			if p.checkDeparture() {
				return p.depart()
			}
			return nil
		}
		return p.enterTarget()
	case State_ON_ACCESS_WAY:
		p.updatePedestrian(dt)
	case State_IN_VEHICLE:
		if p.runtime.Transit != nil {
			p.updatePassenger()
			return nil
		}
		p.updateVehicle(dt)
	}
	if p.runtime.Route.GoalReached() {
		return p.completeLeg()
	}
	return nil
}

// checkDeparture 是否到达出发时间
func (p *Person) checkDeparture() bool {
	return !p.schedule.Empty() && p.ctx.Clock().T >= p.schedule.GetDepartureTime()
}

// depart 出发：规划行程并进入第一段
// 说明：多个候选方式时选择预计出行时间最短者
func (p *Person) depart() error {
	trip := p.schedule.GetTrip()
	start := p.runtime.Position
	modes := route.ResolveModes(p.caps, trip.Modes)
	if len(modes) == 1 {
		p.itinerary = p.m.router.Search(p, start, trip.Goal, modes[0])
	} else {
		p.itinerary = p.m.router.SearchAny(p, start, trip.Goal, modes)
	}
	p.trip = tripRuntime{
		index:     p.schedule.TripIndex,
		start:     start,
		departure: p.ctx.Clock().T,
		expected:  p.itinerary.ExpectedTravelTime(p),
	}
	log.Debugf("person %d: depart trip %d with %v", p.id, p.trip.index, p.itinerary)
	if p.itinerary.GoalReached() {
		p.finishTrip()
		return nil
	}
	return p.enterTarget()
}

// targetLeg 待进入的行程段
func (p *Person) targetLeg() route.Leg {
	if p.trip.completed {
		leg, _ := p.itinerary.NextLeg()
		return leg
	}
	return p.itinerary.CurrentLeg()
}

// enterTarget 进入待进入的行程段
// 功能：成功后游标才前移；候车时保持Offside下一步重试；资源失败时重规划
func (p *Person) enterTarget() error {
	leg := p.targetLeg()
	err := p.enter(leg)
	switch {
	case err == nil:
		if p.trip.completed {
			p.itinerary.Advance()
			p.trip.completed = false
		}
		p.trip.entered = true
		p.m.observeTransition(leg.Mode, true)
		return nil
	case errors.Is(err, errWaiting):
		if !p.runtime.Waiting {
			log.Debugf("person %d: wait for %v at %v", p.id, leg.Mode, p.runtime.Position)
		}
		p.runtime.Waiting = true
		return nil
	case errors.Is(err, errInvalidLeg):
		log.Warnf("person %d: skip %v", p.id, leg)
		if p.trip.completed {
			p.itinerary.Advance()
		}
		p.trip.entered, p.trip.completed = true, true
		if !p.itinerary.HasNext() {
			p.itinerary.Advance()
			p.finishTrip()
			return nil
		}
		return p.enterTarget()
	}
	p.m.observeTransition(leg.Mode, false)
	return p.replan(failedMode(leg, err), err)
}

// failedMode 失败的出行方式，切换前离开交通工具失败时为该交通工具的方式
func failedMode(leg route.Leg, err error) entity.Mode {
	var ce *route.ComposeError
	if errors.As(err, &ce) {
		return ce.Mode
	}
	return leg.Mode
}

// completeLeg 当前段到达终点：离开并进入下一段，无下一段时结束出行
func (p *Person) completeLeg() error {
	leg := p.itinerary.CurrentLeg()
	if err := p.leave(leg); err != nil {
		p.m.observeTransition(leg.Mode, false)
		return p.replan(failedMode(leg, err), err)
	}
	p.trip.completed = true
	if !p.itinerary.HasNext() {
		p.itinerary.Advance()
		p.finishTrip()
		return nil
	}
	return p.enterTarget()
}

// finishTrip 出行结束：输出记录并切换到时刻表的下一次出行
func (p *Person) finishTrip() {
	now := p.ctx.Clock().T
	p.m.recordTripEnd(p.tripRecord(now))
	p.schedule.NextTrip(now)
	p.itinerary = nil
	p.trip = tripRuntime{}
	p.runtime.State = State_OFFSIDE
	p.runtime.Route = nil
	p.runtime.V = 0
}

func (p *Person) tripRecord(now float64) *output.TripRecord {
	it := p.itinerary
	r := &output.TripRecord{
		PersonID:           p.id,
		TripIndex:          p.trip.index,
		Start:              p.trip.start,
		Goal:               it.Goal(),
		Requested:          it.Requested().String(),
		Modes:              lo.Map(it.Modes(), func(m entity.Mode, _ int) string { return m.String() }),
		DominantMode:       it.DominantMode().String(),
		DepartureTime:      p.trip.departure,
		ArrivalTime:        now,
		ExpectedTravelTime: p.trip.expected,
		ActualTravelTime:   now - p.trip.departure,
		TotalLength:        it.TotalLength(),
		MainModeLength:     it.MainModeLength(),
		Replans:            p.trip.replans,
		ForcedWalk:         p.trip.forcedWalk,
	}
	if gaps := it.SwitchPointDistances(); len(gaps) > 0 {
		r.SwitchGaps = gaps
	}
	if reason := it.FallbackReason(); reason != nil {
		r.FallbackReason = reason.Error()
	}
	return r
}

// 获取人的ID
func (p *Person) ID() int32 {
	if p == nil {
		return -1
	}
	return p.id
}

func (p *Person) Capabilities() entity.Capabilities {
	return p.caps
}

// 偏好步行速度（米/秒）
func (p *Person) WalkingSpeed() float64 {
	return p.walkingSpeed
}

func (p *Person) OwnCar() entity.IVehicle {
	return p.ownCar
}

func (p *Person) OwnBicycle() entity.IVehicle {
	return p.ownBicycle
}

// Active 当前驾驶中的交通工具
func (p *Person) Active() entity.VehicleHandle {
	return p.runtime.Active
}

// ActiveNode 驾驶中时当前所在的图节点，到达段终点时为终点节点
func (p *Person) ActiveNode() entity.INode {
	r := p.runtime.Route
	if r.Empty() {
		return nil
	}
	if r.GoalReached() {
		return r.GoalNode()
	}
	return r.CurrentEdge().To()
}

// 以下方法读取快照

// 获取人的位置坐标
func (p *Person) Position() entity.Position {
	return p.snapshot.Position
}

// 获取人的速度
func (p *Person) V() float64 {
	return p.snapshot.V
}

// 获取人的模式切换状态
func (p *Person) State() State {
	return p.snapshot.State
}

// 是否在车站候车
func (p *Person) Waiting() bool {
	return p.snapshot.Waiting
}

// 正在使用的交通工具类别（公共交通乘客为TRANSIT）
func (p *Person) VehicleKind() entity.VehicleKind {
	if p.snapshot.Transit != nil {
		return entity.VehicleKind_TRANSIT
	}
	return p.snapshot.Active.Kind
}

// Itinerary 当前出行的行程，出发前为nil
// 说明：仅在准备阶段或模拟结束后读取
func (p *Person) Itinerary() *route.Itinerary {
	return p.itinerary
}

// Schedule 时刻表
func (p *Person) Schedule() *schedule.Schedule {
	return p.schedule
}
