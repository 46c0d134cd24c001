package graph

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/container"
)

// search Dijkstra搜索
// 返回：from到to的路径；from与to相同时为空路径；不可达时为nil
func (g *Graph) search(from, to entity.INode, filter entity.EdgeFilter, cost func(*Edge) float64) *entity.Route {
	if from == nil || to == nil {
		return nil
	}
	start, ok := g.nodes[from.ID()]
	if !ok {
		return nil
	}
	goal, ok := g.nodes[to.ID()]
	if !ok {
		return nil
	}
	if start == goal {
		return entity.NewRoute(nil)
	}

	dist := map[*Node]float64{start: 0}
	prev := make(map[*Node]*Edge)
	closed := make(map[*Node]struct{})
	q := container.NewPriorityQueue[*Node]()
	q.HeapPush(start, 0)
	for q.Len() > 0 {
		n, d := q.HeapPop()
		if _, ok := closed[n]; ok {
			continue
		}
		closed[n] = struct{}{}
		if n == goal {
			break
		}
		for _, e := range n.out {
			if filter != nil && !filter(e) {
				continue
			}
			if _, ok := closed[e.to]; ok {
				continue
			}
			nd := d + cost(e)
			if old, ok := dist[e.to]; !ok || nd < old {
				dist[e.to] = nd
				prev[e.to] = e
				q.HeapPush(e.to, nd)
			}
		}
	}
	if _, ok := prev[goal]; !ok {
		return nil
	}
	edges := make([]entity.IEdge, 0)
	for n := goal; n != start; {
		e := prev[n]
		edges = append(edges, e)
		n = e.from
	}
	return entity.NewRoute(lo.Reverse(edges))
}
