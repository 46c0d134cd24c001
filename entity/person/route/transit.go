package route

import (
	"sort"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

// transitComposer 公共交通方式的行程构造器
func (r *Router) transitComposer(mode entity.Mode) composer {
	return func(t entity.ITraveler, start, goal entity.Position) ([]Leg, error) {
		return r.composeTransit(mode, start, goal)
	}
}

func stationNearest(layer entity.IStationLayer, p entity.Position) func(func(entity.IStation) bool) (entity.IStation, bool) {
	return func(predicate func(entity.IStation) bool) (entity.IStation, bool) {
		s := layer.Nearest(p, predicate)
		return s, !isNil(s)
	}
}

// composeTransit 公共交通：步行到上车站→一至三段乘车→步行到终点
// 算法说明：
// 1. 两端车站按距离选取，步行不可达时排除后重试；次近车站步行更短时优先
// 2. 两端车站相同时无需乘车，返回无连通路线
// 3. 换乘检索见transferSearch
// 4. 步行段经车站连接到乘车段的轨道节点
func (r *Router) composeTransit(mode entity.Mode, start, goal entity.Position) ([]Leg, error) {
	modality, ok := entity.TransitModality(mode)
	if !ok {
		return nil, newError(mode, ErrCapabilityMissing, "not a transit mode")
	}
	layer := r.layers.Station(mode)
	if layer == nil {
		return nil, newError(mode, ErrResourceUnavailable, "no %v station layer", mode)
	}
	if !r.graph.HasModality(entity.Modality_WALKING) || !r.graph.HasModality(modality) {
		return nil, newError(mode, ErrGraphModalityMissing, "no walking or %v edge", modality)
	}
	startNode, goalNode := r.walkingNode(start), r.walkingNode(goal)
	if startNode == nil || goalNode == nil {
		return nil, newError(mode, ErrGraphModalityMissing, "no walking node")
	}
	board, err := nearestReachable(r, mode, "boarding station", stationNearest(layer, start), startNode, true, true)
	if err != nil {
		return nil, err
	}
	alight, err := nearestReachable(r, mode, "alighting station", stationNearest(layer, goal), goalNode, false, true)
	if err != nil {
		return nil, err
	}
	if board.resource.ID() == alight.resource.ID() {
		return nil, newError(mode, ErrNoConnectingRoute, "start and goal share station %d", board.resource.ID())
	}
	rides, err := r.transferSearch(mode, modality, layer, board.resource, alight.resource)
	if err != nil {
		return nil, err
	}
	track := rides[0].Route.StartNode()
	access := append(append([]entity.IEdge{}, board.walk.Edges()...), platform(board.node, board.resource, track)...)
	track = rides[len(rides)-1].Route.GoalNode()
	egress := append(platform(track, alight.resource, alight.node), alight.walk.Edges()...)

	legs := appendLeg(nil, Leg{Route: entity.NewRoute(access), Mode: entity.Mode_WALKING})
	legs = append(legs, rides...)
	legs = appendLeg(legs, Leg{Route: entity.NewRoute(egress), Mode: entity.Mode_WALKING})
	return withConnectors(legs, start, goal), nil
}

// platform 经车站在步行节点与轨道节点之间步行的虚拟边
func platform(from entity.INode, s entity.IStation, to entity.INode) []entity.IEdge {
	p := entity.PointNode{Pos: s.Position()}
	edges := make([]entity.IEdge, 0, 2)
	for _, c := range []entity.IEdge{connector(from, p), connector(p, to)} {
		if c != nil {
			edges = append(edges, c)
		}
	}
	return edges
}

func intersects(a, b map[int32]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

// transferSearch 换乘检索
// 功能：在上车站s与下车站g之间依次尝试直达、一次换乘、两次换乘
// 算法说明：
// 1. 直达：s与g有共同线路
// 2. 一次换乘：按到s的距离遍历同时与s、g有共同线路的车站x，取第一个两段均可达者
// 3. 两次换乘：遍历与s有共同线路的多线路车站a、与g有共同线路的多线路车站b，
// a与b有共同线路且三段均可达时取第一组
// 返回：乘车段，每段的Station为规划的下车站
func (r *Router) transferSearch(
	mode entity.Mode, modality entity.Modality, layer entity.IStationLayer, s, g entity.IStation,
) ([]Leg, error) {
	filter := entity.ModalityFilter(modality)
	ride := func(a, b entity.IStation) *entity.Route {
		na := r.graph.NearestNode(a.Position(), modality)
		nb := r.graph.NearestNode(b.Position(), modality)
		if na == nil || nb == nil || sameNode(na, nb) {
			return nil
		}
		return r.graph.ShortestRoute(na, nb, filter)
	}
	leg := func(rt *entity.Route, alight entity.IStation) Leg {
		return Leg{Route: rt, Mode: mode, Station: alight}
	}
	sLines, gLines := layer.LinesServed(s), layer.LinesServed(g)

	if intersects(sLines, gLines) {
		if rt := ride(s, g); !rt.Empty() {
			return []Leg{leg(rt, g)}, nil
		}
	}

	stations := lo.Filter(layer.Stations(), func(x entity.IStation, _ int) bool {
		return x.ID() != s.ID() && x.ID() != g.ID()
	})
	byDistance := append([]entity.IStation{}, stations...)
	sort.SliceStable(byDistance, func(i, j int) bool {
		return entity.Distance(s.Position(), byDistance[i].Position()) < entity.Distance(s.Position(), byDistance[j].Position())
	})
	for _, x := range byDistance {
		xLines := layer.LinesServed(x)
		if !intersects(xLines, sLines) || !intersects(xLines, gLines) {
			continue
		}
		r1, r2 := ride(s, x), ride(x, g)
		if !r1.Empty() && !r2.Empty() {
			return []Leg{leg(r1, x), leg(r2, g)}, nil
		}
	}

	startSide := lo.Filter(stations, func(x entity.IStation, _ int) bool {
		lines := layer.LinesServed(x)
		return len(lines) > 1 && intersects(lines, sLines)
	})
	goalSide := lo.Filter(stations, func(x entity.IStation, _ int) bool {
		lines := layer.LinesServed(x)
		return len(lines) > 1 && intersects(lines, gLines)
	})
	for _, a := range startSide {
		for _, b := range goalSide {
			if a.ID() == b.ID() || !intersects(layer.LinesServed(a), layer.LinesServed(b)) {
				continue
			}
			r1, r2, r3 := ride(s, a), ride(a, b), ride(b, g)
			if !r1.Empty() && !r2.Empty() && !r3.Empty() {
				return []Leg{leg(r1, a), leg(r2, b), leg(r3, g)}, nil
			}
		}
	}
	return nil, newError(mode, ErrNoConnectingRoute, "no line combination from station %d to %d", s.ID(), g.ID())
}
