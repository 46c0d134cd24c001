package route

import (
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

// rentalSpec 租赁方式的差异部分
type rentalSpec struct {
	mode    entity.Mode
	kind    entity.VehicleKind
	layer   entity.IRentalLayer
	route   func(from, to entity.INode) *entity.Route
	nearest func(entity.Position) entity.INode
	check   func(entity.Mode) error
}

func (r *Router) rentalBicycle() rentalSpec {
	s := rentalSpec{
		mode:    entity.Mode_CYCLING_RENTAL_BIKE,
		kind:    entity.VehicleKind_RENTAL_BICYCLE,
		route:   r.ride,
		nearest: r.cyclingNode,
		check:   r.checkCyclingGraph,
	}
	if r.layers != nil {
		s.layer = r.layers.BicycleRental
	}
	return s
}

func (r *Router) rentalCar() rentalSpec {
	s := rentalSpec{
		mode:    entity.Mode_CAR_RENTAL_DRIVING,
		kind:    entity.VehicleKind_RENTAL_CAR,
		route:   r.drive,
		nearest: r.drivingNode,
		check:   r.checkDrivingGraph,
	}
	if r.layers != nil {
		s.layer = r.layers.CarRental
	}
	return s
}

func (r *Router) composeRentalCycling(t entity.ITraveler, start, goal entity.Position) ([]Leg, error) {
	return r.composeRental(r.rentalBicycle(), t, start, goal)
}

func (r *Router) composeRentalDriving(t entity.ITraveler, start, goal entity.Position) ([]Leg, error) {
	return r.composeRental(r.rentalCar(), t, start, goal)
}

func rentalNearest(layer entity.IRentalLayer, p entity.Position, accept func(entity.IRentalStation) bool) func(func(entity.IRentalStation) bool) (entity.IRentalStation, bool) {
	return func(predicate func(entity.IRentalStation) bool) (entity.IRentalStation, bool) {
		s := layer.Nearest(p, func(x entity.IRentalStation) bool { return accept(x) && predicate(x) })
		return s, !isNil(s)
	}
}

// composeRental 租赁交通工具：步行到有车的租赁站→骑行/驾驶到终点附近有空位的租赁站→步行到终点
// 算法说明：
// 1. 两端租赁站均按距离选取，步行不可达时排除后重试
// 2. 正在使用租赁交通工具（中途重规划）时从当前节点出发，只重新选择还车站
func (r *Router) composeRental(s rentalSpec, t entity.ITraveler, start, goal entity.Position) ([]Leg, error) {
	if err := s.check(s.mode); err != nil {
		return nil, err
	}
	if s.layer == nil {
		return nil, newError(s.mode, ErrResourceUnavailable, "no %v station layer", s.kind)
	}
	goalNode := r.walkingNode(goal)
	if goalNode == nil {
		return nil, newError(s.mode, ErrGraphModalityMissing, "no walking node")
	}
	drop, err := nearestReachable(r, s.mode, "return station",
		rentalNearest(s.layer, goal, func(x entity.IRentalStation) bool { return x.HasFreeCapacity() }),
		goalNode, false, false)
	if err != nil {
		return nil, err
	}

	if active := t.Active(); active.Kind == s.kind {
		from := t.ActiveNode()
		if from == nil {
			from = s.nearest(active.Vehicle.Position())
		}
		legs, err := r.rideToDrop(s.mode, from, drop.resource, drop.resource.Position(), goal, s.route, s.nearest)
		if err != nil {
			return nil, err
		}
		return withRideConnectors(legs, start, goal), nil
	}

	startNode := r.walkingNode(start)
	if startNode == nil {
		return nil, newError(s.mode, ErrGraphModalityMissing, "no walking node")
	}
	pick, err := nearestReachable(r, s.mode, "rental station",
		rentalNearest(s.layer, start, func(x entity.IRentalStation) bool { return !x.Empty() }),
		startNode, true, false)
	if err != nil {
		return nil, err
	}
	if pick.resource.ID() == drop.resource.ID() {
		return nil, newError(s.mode, ErrNoConnectingRoute, "rental station %d serves both ends", pick.resource.ID())
	}
	from := s.nearest(pick.resource.Position())
	if sameNode(from, s.nearest(drop.resource.Position())) {
		return nil, newError(s.mode, ErrNoConnectingRoute, "rental stations share node %d", from.ID())
	}
	rest, err := r.rideToDrop(s.mode, from, drop.resource, drop.resource.Position(), goal, s.route, s.nearest)
	if err != nil {
		return nil, err
	}
	legs := appendLeg(nil, Leg{Route: pick.walk, Mode: entity.Mode_WALKING})
	return withConnectors(append(legs, rest...), start, goal), nil
}
