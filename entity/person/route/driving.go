package route

import (
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

func (r *Router) checkDrivingGraph(mode entity.Mode) error {
	if !r.graph.HasModality(entity.Modality_WALKING) {
		return newError(mode, ErrGraphModalityMissing, "no walking edge")
	}
	if !r.graph.HasModality(entity.Modality_CAR_DRIVING) {
		return newError(mode, ErrGraphModalityMissing, "no driving edge")
	}
	return nil
}

// rideToDrop 交通工具段+到达终点的步行段
// 参数：
//   - from: 交通工具所在节点
//   - drop: 段终点资源（可为nil，表示停在dropPos附近路边）
//   - route: 交通工具的路径检索
//   - nearest: 交通工具可用的最近节点
//
// 说明：交通工具所在节点与终点资源节点相同时不产生交通工具段
func (r *Router) rideToDrop(
	mode entity.Mode, from entity.INode, drop entity.IResource, dropPos, goal entity.Position,
	route func(from, to entity.INode) *entity.Route, nearest func(entity.Position) entity.INode,
) ([]Leg, error) {
	goalNode := r.walkingNode(goal)
	to := nearest(dropPos)
	if from == nil || to == nil || goalNode == nil {
		return nil, newError(mode, ErrGraphModalityMissing, "no %v node near vehicle or drop point", mode)
	}
	var legs []Leg
	last := from
	if !sameNode(from, to) {
		ride := route(from, to)
		if ride.Empty() {
			return nil, newError(mode, ErrNoConnectingRoute, "node %d unreachable from %d", to.ID(), from.ID())
		}
		legs = append(legs, Leg{Route: ride, Mode: mode, Resource: drop})
		last = ride.GoalNode()
	}
	walk, ok := r.walk(r.walkingNode(last.Position()), goalNode)
	if !ok {
		return nil, newError(mode, ErrNoConnectingRoute, "goal unreachable by walking from node %d", last.ID())
	}
	return appendLeg(legs, Leg{Route: walk, Mode: entity.Mode_WALKING}), nil
}

// drivingNode 机动车可用的最近节点
func (r *Router) drivingNode(p entity.Position) entity.INode {
	return r.graph.NearestNode(p, entity.Modality_CAR_DRIVING)
}

// drive 最快路（含起终点附近放宽检索）
func (r *Router) drive(from, to entity.INode) *entity.Route {
	return r.fastestWithFallback(from, to, drivingFilter)
}

// composeDriving 自有汽车：步行到停车位→驾驶到终点附近有空位的停车场→步行到终点
// 算法说明：
// 1. 驾驶中（中途重规划，如到达时停车场已满）时从当前节点出发，重新选择有空位的停车场
// 2. 否则先步行到汽车所在位置
func (r *Router) composeDriving(t entity.ITraveler, start, goal entity.Position) ([]Leg, error) {
	const mode = entity.Mode_CAR_DRIVING
	if err := r.checkDrivingGraph(mode); err != nil {
		return nil, err
	}
	car := t.OwnCar()
	if isNil(car) {
		return nil, newError(mode, ErrCapabilityMissing, "person %d has no car", t.ID())
	}
	if r.layers == nil || r.layers.CarParking == nil {
		return nil, newError(mode, ErrResourceUnavailable, "no car parking layer")
	}
	drop := r.layers.CarParking.Nearest(goal, func(x entity.IResource) bool { return x.HasFreeCapacity() })
	if isNil(drop) {
		return nil, newError(mode, ErrResourceUnavailable, "no free parking near goal")
	}

	if active := t.Active(); active.Kind == entity.VehicleKind_OWN_CAR {
		from := t.ActiveNode()
		if from == nil {
			from = r.drivingNode(active.Vehicle.Position())
		}
		legs, err := r.rideToDrop(mode, from, drop, drop.Position(), goal, r.drive, r.drivingNode)
		if err != nil {
			return nil, err
		}
		return withRideConnectors(legs, start, goal), nil
	}

	startNode := r.walkingNode(start)
	carNode := r.walkingNode(car.Position())
	walk, ok := r.walk(startNode, carNode)
	if !ok {
		return nil, newError(mode, ErrResourceUnavailable, "car %d unreachable by walking", car.ID())
	}
	from := r.drivingNode(car.Position())
	if sameNode(from, r.drivingNode(drop.Position())) {
		return nil, newError(mode, ErrNoConnectingRoute, "car already parked next to goal")
	}
	rest, err := r.rideToDrop(mode, from, drop, drop.Position(), goal, r.drive, r.drivingNode)
	if err != nil {
		return nil, err
	}
	legs := appendLeg(nil, Leg{Route: walk, Mode: entity.Mode_WALKING})
	return withConnectors(append(legs, rest...), start, goal), nil
}
