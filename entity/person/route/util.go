package route

import (
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

var (
	walkingFilter = entity.ModalityFilter(entity.Modality_WALKING)
	cyclingFilter = entity.ModalityFilter(entity.Modality_CYCLING, entity.Modality_CAR_DRIVING)
	drivingFilter = entity.ModalityFilter(entity.Modality_CAR_DRIVING)
)

func isNil[T any](x T) bool {
	return any(x) == nil
}

// sameNode 两个节点是否相同（nil视为不同）
func sameNode(a, b entity.INode) bool {
	return a != nil && b != nil && a.ID() == b.ID()
}

// walkingNode 最近的步行节点
func (r *Router) walkingNode(p entity.Position) entity.INode {
	return r.graph.NearestNode(p, entity.Modality_WALKING)
}

// nearestOf 支持任一给定通行方式的最近节点
func (r *Router) nearestOf(p entity.Position, modalities ...entity.Modality) entity.INode {
	var best entity.INode
	for _, m := range modalities {
		n := r.graph.NearestNode(p, m)
		if n == nil {
			continue
		}
		if best == nil || entity.Distance(p, n.Position()) < entity.Distance(p, best.Position()) {
			best = n
		}
	}
	return best
}

// walk 两节点间步行路径
// 返回：节点相同时为nil与true；不可达时为nil与false
func (r *Router) walk(from, to entity.INode) (*entity.Route, bool) {
	if from == nil || to == nil {
		return nil, false
	}
	if sameNode(from, to) {
		return nil, true
	}
	rt := r.graph.ShortestRoute(from, to, walkingFilter)
	return rt, rt != nil
}

// fastestWithFallback 最快路，无解时在起终点附近各取FallbackHops个节点放宽检索
func (r *Router) fastestWithFallback(from, to entity.INode, filter entity.EdgeFilter) *entity.Route {
	if rt := r.graph.FastestRoute(from, to, filter); rt != nil {
		return rt
	}
	hops := r.opts.FallbackHops
	for _, a := range r.graph.NearestNodes(from.Position(), 0, hops) {
		for _, b := range r.graph.NearestNodes(to.Position(), 0, hops) {
			if sameNode(a, b) {
				continue
			}
			if rt := r.graph.FastestRoute(a, b, filter); rt != nil && !rt.Empty() {
				log.Debugf("fastest route %d->%d relaxed to %d->%d", from.ID(), to.ID(), a.ID(), b.ID())
				return rt
			}
		}
	}
	return nil
}

type resource interface {
	ID() int32
	Position() entity.Position
}

// reachable 带排除重试的最近可达资源检索结果
type reachable[T resource] struct {
	resource T
	node     entity.INode  // 资源的步行节点
	walk     *entity.Route // anchor与资源间的步行路径，共点时为nil
}

// nearestReachable 带排除重试的最近可达资源检索
// 参数：
//   - nearest: 在候选谓词下检索最近资源，无则返回false
//   - anchor: 起点侧为出发步行节点，终点侧为到达步行节点
//   - toResource: true表示从anchor步行到资源，否则从资源步行到anchor
//   - preferShorter: 次近资源的步行路径严格更短时优先选择次近资源
//
// 算法说明：
// 1. 取排除集之外的最近资源，步行不可达则加入排除集重试，最多MaxStationAttempts次
// 2. 可达时若preferShorter，比较次近资源的步行长度
func nearestReachable[T resource](
	r *Router, mode entity.Mode, what string,
	nearest func(predicate func(T) bool) (T, bool),
	anchor entity.INode, toResource, preferShorter bool,
) (reachable[T], error) {
	excluded := make(map[int32]struct{})
	notExcluded := func(x T) bool {
		_, ok := excluded[x.ID()]
		return !ok
	}
	walkTo := func(x T) (entity.INode, *entity.Route, bool) {
		node := r.walkingNode(x.Position())
		if node == nil {
			return nil, nil, false
		}
		var rt *entity.Route
		var ok bool
		if toResource {
			rt, ok = r.walk(anchor, node)
		} else {
			rt, ok = r.walk(node, anchor)
		}
		return node, rt, ok
	}

	for attempt := 0; attempt < r.opts.MaxStationAttempts; attempt++ {
		cand, ok := nearest(notExcluded)
		if !ok {
			return reachable[T]{}, newError(mode, ErrResourceUnavailable, "no %s near %v", what, anchor.Position())
		}
		node, rt, ok := walkTo(cand)
		if !ok {
			log.Debugf("%v: %s %d unreachable by walking, exclude it", mode, what, cand.ID())
			excluded[cand.ID()] = struct{}{}
			continue
		}
		best := reachable[T]{resource: cand, node: node, walk: rt}
		if preferShorter && !rt.Empty() {
			second, ok := nearest(func(x T) bool { return x.ID() != cand.ID() && notExcluded(x) })
			if ok {
				if n2, rt2, ok2 := walkTo(second); ok2 && rt2.Length() < rt.Length() {
					best = reachable[T]{resource: second, node: n2, walk: rt2}
				}
			}
		}
		return best, nil
	}
	return reachable[T]{}, newError(mode, ErrResourceUnavailable,
		"no reachable %s after %d attempts", what, r.opts.MaxStationAttempts)
}

// appendLeg 追加非空段
func appendLeg(legs []Leg, leg Leg) []Leg {
	if leg.Route.Empty() {
		return legs
	}
	return append(legs, leg)
}

// withConnectors 用虚拟边连接精确起点与首段、末段与精确终点
func withConnectors(legs []Leg, start, goal entity.Position) []Leg {
	return connectGoal(connectStart(legs, start, false), goal)
}

// withRideConnectors 驾驶中重规划的行程段，首段由当前交通工具继续行驶，不补充步行段
func withRideConnectors(legs []Leg, start, goal entity.Position) []Leg {
	return connectGoal(connectStart(legs, start, true), goal)
}

// connectStart 首段为步行时虚拟边并入首段，否则在前面补充步行到首段起点的段（riding时除外）
func connectStart(legs []Leg, start entity.Position, riding bool) []Leg {
	if len(legs) == 0 {
		return legs
	}
	first := legs[0]
	c := connector(entity.PointNode{Pos: start}, first.Route.StartNode())
	if c == nil {
		return legs
	}
	if first.Mode == entity.Mode_WALKING {
		legs[0].Route = entity.NewRoute(append([]entity.IEdge{c}, first.Route.Edges()...))
		return legs
	}
	if riding {
		return legs
	}
	// 资源与起点共用最近步行节点
	walk := Leg{Route: entity.NewRoute([]entity.IEdge{c}), Mode: entity.Mode_WALKING}
	return append([]Leg{walk}, legs...)
}

// connectGoal 末段为步行时虚拟边并入末段，否则补充步行到终点的段
func connectGoal(legs []Leg, goal entity.Position) []Leg {
	if len(legs) == 0 {
		return legs
	}
	last := legs[len(legs)-1]
	c := connector(last.Route.GoalNode(), entity.PointNode{Pos: goal})
	if c == nil {
		return legs
	}
	if last.Mode == entity.Mode_WALKING {
		edges := append(append([]entity.IEdge{}, last.Route.Edges()...), c)
		legs[len(legs)-1].Route = entity.NewRoute(edges)
		return legs
	}
	// 交通工具停在终点最近节点时补充步行到终点的段
	return append(legs, Leg{Route: entity.NewRoute([]entity.IEdge{c}), Mode: entity.Mode_WALKING})
}

// connector 两点间的步行虚拟边，任一端为nil或两点重合时为nil
func connector(from, to entity.INode) entity.IEdge {
	if isNil(from) || isNil(to) || entity.Distance(from.Position(), to.Position()) <= 0 {
		return nil
	}
	return entity.NewConnector(from, to)
}

// straightLine 精确起终点间的直线步行段，两点重合时为空
func straightLine(start, goal entity.Position) []Leg {
	if entity.Distance(start, goal) <= 0 {
		return nil
	}
	c := entity.NewConnector(entity.PointNode{Pos: start}, entity.PointNode{Pos: goal})
	return []Leg{{Route: entity.NewRoute([]entity.IEdge{c}), Mode: entity.Mode_WALKING}}
}
