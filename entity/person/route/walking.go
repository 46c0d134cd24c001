package route

import (
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

// composeWalking 纯步行行程：起点最近步行节点到终点最近步行节点的最短路
// 说明：两端节点相同时只由虚拟边组成（起点→节点→终点）
func (r *Router) composeWalking(_ entity.ITraveler, start, goal entity.Position) ([]Leg, error) {
	const mode = entity.Mode_WALKING
	if !r.graph.HasModality(entity.Modality_WALKING) {
		return nil, newError(mode, ErrGraphModalityMissing, "no walking edge")
	}
	from, to := r.walkingNode(start), r.walkingNode(goal)
	if from == nil || to == nil {
		return nil, newError(mode, ErrGraphModalityMissing, "no walking node")
	}
	if sameNode(from, to) {
		edges := make([]entity.IEdge, 0, 2)
		if entity.Distance(start, from.Position()) > 0 {
			edges = append(edges, entity.NewConnector(entity.PointNode{Pos: start}, from))
		}
		if entity.Distance(from.Position(), goal) > 0 {
			edges = append(edges, entity.NewConnector(from, entity.PointNode{Pos: goal}))
		}
		if len(edges) == 0 {
			return nil, nil
		}
		return []Leg{{Route: entity.NewRoute(edges), Mode: mode}}, nil
	}
	rt, ok := r.walk(from, to)
	if !ok {
		return nil, newError(mode, ErrNoConnectingRoute, "node %d unreachable from %d", to.ID(), from.ID())
	}
	return withConnectors([]Leg{{Route: rt, Mode: mode}}, start, goal), nil
}
