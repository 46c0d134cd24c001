package route

import (
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

func (r *Router) checkCyclingGraph(mode entity.Mode) error {
	if !r.graph.HasModality(entity.Modality_WALKING) {
		return newError(mode, ErrGraphModalityMissing, "no walking edge")
	}
	if !r.graph.HasModality(entity.Modality_CYCLING) && !r.graph.HasModality(entity.Modality_CAR_DRIVING) {
		return newError(mode, ErrGraphModalityMissing, "no cycling or driving edge")
	}
	return nil
}

// cyclingNode 自行车可用的最近节点（骑行道或机动车道）
func (r *Router) cyclingNode(p entity.Position) entity.INode {
	return r.nearestOf(p, entity.Modality_CYCLING, entity.Modality_CAR_DRIVING)
}

func (r *Router) ride(from, to entity.INode) *entity.Route {
	return r.graph.ShortestRoute(from, to, cyclingFilter)
}

// bicycleDrop 终点附近有空位的自行车停车场，无图层或无空位时为nil
func (r *Router) bicycleDrop(goal entity.Position) entity.IResource {
	if r.layers == nil || r.layers.BicycleParking == nil {
		return nil
	}
	drop := r.layers.BicycleParking.Nearest(goal, func(x entity.IResource) bool { return x.HasFreeCapacity() })
	if isNil(drop) {
		return nil
	}
	return drop
}

// composeOwnCycling 自有自行车：步行到车→骑行→步行到终点
// 算法说明：
// 1. 骑行中（中途重规划）时从当前节点直接骑到终点
// 2. 否则步行到自行车所在位置，骑到终点附近的自行车停车场（无停车场时骑到终点附近路边），步行到终点
func (r *Router) composeOwnCycling(t entity.ITraveler, start, goal entity.Position) ([]Leg, error) {
	const mode = entity.Mode_CYCLING_OWN_BIKE
	if err := r.checkCyclingGraph(mode); err != nil {
		return nil, err
	}
	bike := t.OwnBicycle()
	if isNil(bike) {
		return nil, newError(mode, ErrCapabilityMissing, "person %d has no bicycle", t.ID())
	}
	drop := r.bicycleDrop(goal)
	dropPos := goal
	if drop != nil {
		dropPos = drop.Position()
	}

	if active := t.Active(); active.Kind == entity.VehicleKind_OWN_BICYCLE {
		from := t.ActiveNode()
		if from == nil {
			from = r.cyclingNode(active.Vehicle.Position())
		}
		legs, err := r.rideToDrop(mode, from, drop, dropPos, goal, r.ride, r.cyclingNode)
		if err != nil {
			return nil, err
		}
		return withRideConnectors(legs, start, goal), nil
	}

	walk, ok := r.walk(r.walkingNode(start), r.walkingNode(bike.Position()))
	if !ok {
		return nil, newError(mode, ErrResourceUnavailable, "bicycle %d unreachable by walking", bike.ID())
	}
	from := r.cyclingNode(bike.Position())
	if sameNode(from, r.cyclingNode(dropPos)) {
		return nil, newError(mode, ErrNoConnectingRoute, "bicycle already next to goal")
	}
	rest, err := r.rideToDrop(mode, from, drop, dropPos, goal, r.ride, r.cyclingNode)
	if err != nil {
		return nil, err
	}
	legs := appendLeg(nil, Leg{Route: walk, Mode: entity.Mode_WALKING})
	return withConnectors(append(legs, rest...), start, goal), nil
}
