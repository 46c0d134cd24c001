package graph

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

// 未设置限速时最快路搜索使用的速度（米/秒）
const defaultSpeed = 30 / 3.6

type modalitySet uint32

func newModalitySet(ms ...entity.Modality) modalitySet {
	var s modalitySet
	for _, m := range ms {
		s |= 1 << uint32(m)
	}
	return s
}

func (s modalitySet) has(m entity.Modality) bool {
	return s&(1<<uint32(m)) != 0
}

func (s modalitySet) hasAll(ms []entity.Modality) bool {
	for _, m := range ms {
		if !s.has(m) {
			return false
		}
	}
	return true
}

// Node 路网节点
type Node struct {
	id         int32
	pos        entity.Position
	out        []*Edge
	modalities modalitySet // 所有关联边支持的通行方式之并
}

func (n *Node) ID() int32                 { return n.id }
func (n *Node) Position() entity.Position { return n.pos }
func (n *Node) Out() []*Edge              { return n.out }

func (n *Node) String() string {
	return fmt.Sprintf("Node{id=%d, pos=%v}", n.id, n.pos)
}

// Edge 有向边
type Edge struct {
	id         int32
	from, to   *Node
	length     float64
	maxSpeed   float64
	modalities modalitySet
}

func (e *Edge) ID() int32          { return e.id }
func (e *Edge) From() entity.INode { return e.from }
func (e *Edge) To() entity.INode   { return e.to }
func (e *Edge) Length() float64    { return e.length }
func (e *Edge) MaxSpeed() float64  { return e.maxSpeed }
func (e *Edge) String() string     { return fmt.Sprintf("Edge{id=%d, %d->%d}", e.id, e.from.id, e.to.id) }
func (e *Edge) HasModality(m entity.Modality) bool {
	return e.modalities.has(m)
}

// Graph 内存空间图
// 功能：保存节点与有向边，提供最近节点、最短/最快路搜索以及实体占位
// 说明：路网构建完成后只读，实体表由读写锁保护，可被多个出行者并发访问
type Graph struct {
	nodes      map[int32]*Node
	order      []*Node // 按加入顺序，用于距离相同时的确定性选择
	edges      map[int32]*Edge
	modalities modalitySet

	entities map[any]*Node
	mtx      sync.RWMutex
}

// New 创建空图
func New() *Graph {
	return &Graph{
		nodes:    make(map[int32]*Node),
		order:    make([]*Node, 0),
		edges:    make(map[int32]*Edge),
		entities: make(map[any]*Node),
	}
}

// AddNode 加入节点，ID重复时panic
func (g *Graph) AddNode(id int32, pos entity.Position) *Node {
	if _, ok := g.nodes[id]; ok {
		log.Panicf("duplicate node id %d", id)
	}
	n := &Node{id: id, pos: pos, out: make([]*Edge, 0)}
	g.nodes[id] = n
	g.order = append(g.order, n)
	return n
}

// AddEdge 加入有向边
// 参数：length<=0时使用两端点间距离；maxSpeed为限速（米/秒）
func (g *Graph) AddEdge(id, from, to int32, length, maxSpeed float64, modalities ...entity.Modality) (*Edge, error) {
	if _, ok := g.edges[id]; ok {
		return nil, fmt.Errorf("duplicate edge id %d", id)
	}
	a, ok := g.nodes[from]
	if !ok {
		return nil, fmt.Errorf("edge %d: no from node %d", id, from)
	}
	b, ok := g.nodes[to]
	if !ok {
		return nil, fmt.Errorf("edge %d: no to node %d", id, to)
	}
	if len(modalities) == 0 {
		return nil, fmt.Errorf("edge %d: no modality", id)
	}
	if geometric := entity.Distance(a.pos, b.pos); length < geometric {
		length = geometric
	}
	e := &Edge{
		id:         id,
		from:       a,
		to:         b,
		length:     length,
		maxSpeed:   maxSpeed,
		modalities: newModalitySet(modalities...),
	}
	g.edges[id] = e
	a.out = append(a.out, e)
	a.modalities |= e.modalities
	b.modalities |= e.modalities
	g.modalities |= e.modalities
	return e, nil
}

// Node 根据ID查找节点
func (g *Graph) Node(id int32) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes 全部节点（按加入顺序）
func (g *Graph) Nodes() []*Node {
	return g.order
}

// Edge 根据ID查找边
func (g *Graph) Edge(id int32) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

func (g *Graph) HasModality(m entity.Modality) bool {
	return g.modalities.has(m)
}

func (g *Graph) NearestNode(position entity.Position, required ...entity.Modality) entity.INode {
	var best *Node
	bestDistance := math.Inf(1)
	for _, n := range g.order {
		if n.modalities == 0 || !n.modalities.hasAll(required) {
			continue
		}
		if d := entity.Distance(position, n.pos); d < bestDistance {
			best, bestDistance = n, d
		}
	}
	if best == nil {
		return nil
	}
	return best
}

func (g *Graph) NearestNodes(position entity.Position, maxDistance float64, limit int) []entity.INode {
	type candidate struct {
		node     *Node
		distance float64
	}
	candidates := make([]candidate, 0)
	for _, n := range g.order {
		if n.modalities == 0 {
			continue
		}
		d := entity.Distance(position, n.pos)
		if maxDistance > 0 && d > maxDistance {
			continue
		}
		candidates = append(candidates, candidate{n, d})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return lo.Map(candidates, func(c candidate, _ int) entity.INode { return c.node })
}

func (g *Graph) ShortestRoute(from, to entity.INode, filter entity.EdgeFilter) *entity.Route {
	return g.search(from, to, filter, func(e *Edge) float64 { return e.length })
}

func (g *Graph) FastestRoute(from, to entity.INode, filter entity.EdgeFilter) *entity.Route {
	return g.search(from, to, filter, func(e *Edge) float64 {
		v := e.maxSpeed
		if v <= 0.01 {
			v = defaultSpeed
		}
		return e.length / v
	})
}

// Insert 将实体放置到节点上，节点不属于本图时返回false
func (g *Graph) Insert(e any, node entity.INode) bool {
	if node == nil {
		return false
	}
	n, ok := g.nodes[node.ID()]
	if !ok {
		return false
	}
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.entities[e] = n
	return true
}

// Remove 移除实体，返回实体原先是否在图上
func (g *Graph) Remove(e any) bool {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	_, ok := g.entities[e]
	delete(g.entities, e)
	return ok
}

func (g *Graph) Contains(e any) bool {
	g.mtx.RLock()
	defer g.mtx.RUnlock()
	_, ok := g.entities[e]
	return ok
}

// EntityCount 图上实体数量
func (g *Graph) EntityCount() int {
	g.mtx.RLock()
	defer g.mtx.RUnlock()
	return len(g.entities)
}
