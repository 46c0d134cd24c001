package entity

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Position 地理坐标（X为经度，Y为纬度），值类型，按坐标比较相等
type Position = orb.Point

// Distance 两点间大圆距离（米，haversine公式）
func Distance(a, b Position) float64 {
	return geo.DistanceHaversine(a, b)
}

// 空间图（外部协作者）的依赖倒置

// INode 图节点
type INode interface {
	ID() int32
	Position() Position
}

// IEdge 有向边
type IEdge interface {
	ID() int32
	From() INode
	To() INode
	Length() float64             // 长度（米）
	MaxSpeed() float64           // 限速（米/秒），<=0.01视为未设置
	HasModality(m Modality) bool // 是否允许某种通行方式
}

// EdgeFilter 边过滤器，返回true表示可通行
type EdgeFilter func(e IEdge) bool

// ModalityFilter 允许任一给定通行方式的边过滤器
func ModalityFilter(modalities ...Modality) EdgeFilter {
	return func(e IEdge) bool {
		for _, m := range modalities {
			if e.HasModality(m) {
				return true
			}
		}
		return false
	}
}

// ISpatialGraph 空间图
// 所有查询无路可达时返回nil或空，不会panic
type ISpatialGraph interface {
	// 是否存在支持该通行方式的边
	HasModality(m Modality) bool
	// 距离position最近、且关联边支持全部required通行方式的节点
	NearestNode(position Position, required ...Modality) INode
	// 最短路（代价为长度）
	ShortestRoute(from, to INode, filter EdgeFilter) *Route
	// 最快路（代价为时间）
	FastestRoute(from, to INode, filter EdgeFilter) *Route
	// position周围maxDistance内按距离排序的至多limit个节点
	NearestNodes(position Position, maxDistance float64, limit int) []INode

	// 实体在图上的插入与移除（步行者、车辆）
	Insert(e any, node INode) bool
	Remove(e any) bool
	Contains(e any) bool
}

// 资源（外部协作者）的依赖倒置

// IResource 容量受限资源：停车场、租赁站、车站
// Enter/Leave为原子操作，是跨出行者竞争的唯一修改点
type IResource interface {
	ID() int32
	Position() Position
	HasFreeCapacity() bool
	Enter(v IVehicle) bool
	Leave(v IVehicle) bool
}

// IParkingLayer 停车场图层
type IParkingLayer interface {
	Nearest(position Position, predicate func(IResource) bool) IResource
}

// IRentalStation 租赁站
type IRentalStation interface {
	IResource
	Empty() bool    // 无可租车辆
	Rent() IVehicle // 原子地取出一辆车，无车返回nil
}

// IRentalLayer 租赁站图层
type IRentalLayer interface {
	Nearest(position Position, predicate func(IRentalStation) bool) IRentalStation
}

// IStation 公共交通车站
type IStation interface {
	ID() int32
	Position() Position
	Lines() []int32                     // 途经线路
	Find(goal Position) ITransitVehicle // 停靠中、且后续经过goal的车辆
}

// IStationLayer 车站图层
type IStationLayer interface {
	Nearest(position Position, predicate func(IStation) bool) IStation
	Stations() []IStation
	LinesServed(s IStation) map[int32]struct{}
}

// Layers 路径规划与模式切换所用的全部资源图层，未提供的图层为nil
type Layers struct {
	CarParking     IParkingLayer
	BicycleParking IParkingLayer
	BicycleRental  IRentalLayer
	CarRental      IRentalLayer
	Stations       map[Mode]IStationLayer
}

// Station 获取某公共交通方式的车站图层
func (l *Layers) Station(m Mode) IStationLayer {
	if l == nil || l.Stations == nil {
		return nil
	}
	return l.Stations[m]
}

// 交通工具的依赖倒置

// IVehicle 可驾驶的交通工具（汽车、自行车）
type IVehicle interface {
	ID() int32
	Kind() VehicleKind
	Position() Position
	SetPosition(p Position)
	MaxSpeed() float64

	// 停放位置（停车场或租赁站），未停放时为nil
	ParkingSpace() IResource
	SetParkingSpace(r IResource)

	// 驾驶员占用，原子操作
	TryEnterDriver(driver any) bool
	LeaveDriver(driver any) bool
	Driver() any
}

// Message 车辆发给乘客的通知
type Message int32

const (
	Message_TERMINAL_STATION Message = iota // 到达终点站，强制下车
	Message_GOAL_REACHED                    // 到站，候选下车
	Message_NO_DRIVER                       // 车辆无驾驶员
)

func (m Message) String() string {
	switch m {
	case Message_TERMINAL_STATION:
		return "terminal_station"
	case Message_GOAL_REACHED:
		return "goal_reached"
	case Message_NO_DRIVER:
		return "no_driver"
	}
	return "unknown"
}

// IPassenger 可接收车辆通知的乘客
type IPassenger interface {
	ID() int32
	Notify(msg Message)
}

// ITransitVehicle 公共交通车辆
type ITransitVehicle interface {
	ID() int32
	Position() Position
	Capacity() int
	PassengerCount() int
	RemainingStops() []Position // 本方向后续停靠站坐标
	// 容量内原子地上车，满载返回false
	TryEnterPassenger(p IPassenger) bool
	LeavePassenger(p IPassenger) bool
}

// ITraveler 路径规划所需的出行者信息
type ITraveler interface {
	ID() int32
	Capabilities() Capabilities
	WalkingSpeed() float64 // 偏好步行速度（米/秒），<=0时使用默认值
	OwnCar() IVehicle      // 无则nil
	OwnBicycle() IVehicle  // 无则nil
	Active() VehicleHandle // 当前驾驶中的交通工具
	ActiveNode() INode     // 驾驶中时当前所在的图节点
}
