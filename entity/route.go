package entity

import (
	"fmt"
	"math"
)

// Route 单一出行方式的路径（边序列），由空间图产生，归属于唯一的行程段
// 记录行进进度：当前边下标与在当前边上已行进的距离
type Route struct {
	edges  []IEdge
	length float64

	index  int     // 当前边下标，等于len(edges)表示已到达终点
	offset float64 // 在当前边上已行进的距离
	passed float64 // 已走完的边长度之和
}

// NewRoute 由边序列创建路径，空序列得到已到达终点的空路径
func NewRoute(edges []IEdge) *Route {
	r := &Route{edges: edges}
	for _, e := range edges {
		r.length += e.Length()
	}
	return r
}

func (r *Route) String() string {
	if r.Empty() {
		return "Route{}"
	}
	return fmt.Sprintf("Route{edges=%d, length=%.1f, remaining=%.1f}", len(r.edges), r.length, r.RemainingDistance())
}

// Edges 全部边（只读）
func (r *Route) Edges() []IEdge {
	if r == nil {
		return nil
	}
	return r.edges
}

func (r *Route) Empty() bool {
	return r == nil || len(r.edges) == 0
}

// Length 总长度
func (r *Route) Length() float64 {
	if r == nil {
		return 0
	}
	return r.length
}

// RemainingDistance 剩余距离
func (r *Route) RemainingDistance() float64 {
	if r.GoalReached() {
		return 0
	}
	return math.Max(0, r.length-r.passed-r.offset)
}

// GoalReached 是否已到达终点（空路径总是已到达）
func (r *Route) GoalReached() bool {
	return r.Empty() || r.index >= len(r.edges)
}

func (r *Route) StartNode() INode {
	if r.Empty() {
		return nil
	}
	return r.edges[0].From()
}

func (r *Route) GoalNode() INode {
	if r.Empty() {
		return nil
	}
	return r.edges[len(r.edges)-1].To()
}

// Start 起点坐标
func (r *Route) Start() Position {
	if n := r.StartNode(); n != nil {
		return n.Position()
	}
	return Position{}
}

// Goal 终点坐标
func (r *Route) Goal() Position {
	if n := r.GoalNode(); n != nil {
		return n.Position()
	}
	return Position{}
}

// CurrentEdge 当前所在边，到达终点后为最后一条边
func (r *Route) CurrentEdge() IEdge {
	if r.Empty() {
		return nil
	}
	if r.index >= len(r.edges) {
		return r.edges[len(r.edges)-1]
	}
	return r.edges[r.index]
}

// CurrentPosition 当前坐标（在当前边上线性插值）
func (r *Route) CurrentPosition() Position {
	if r.Empty() {
		return Position{}
	}
	if r.GoalReached() {
		return r.Goal()
	}
	e := r.edges[r.index]
	a, b := e.From().Position(), e.To().Position()
	if e.Length() <= 0 {
		return a
	}
	k := r.offset / e.Length()
	return Position{a[0] + (b[0]-a[0])*k, a[1] + (b[1]-a[1])*k}
}

// Move 沿路径前进distance，返回实际前进的距离
func (r *Route) Move(distance float64) float64 {
	moved := 0.
	for distance > 0 && !r.GoalReached() {
		e := r.edges[r.index]
		rest := e.Length() - r.offset
		if distance < rest {
			r.offset += distance
			moved += distance
			break
		}
		distance -= rest
		moved += rest
		r.passed += e.Length()
		r.offset = 0
		r.index++
	}
	// 零长度的尾边直接跳过
	for !r.GoalReached() && r.edges[r.index].Length() <= 0 {
		r.index++
	}
	return moved
}

// JumpToGoal 直接置为已到达终点
func (r *Route) JumpToGoal() {
	if r.Empty() {
		return
	}
	r.index = len(r.edges)
	r.offset = 0
	r.passed = r.length
}

// PointNode 不属于空间图的坐标节点，用于连接精确起终点与图节点
type PointNode struct {
	Pos Position
}

func (n PointNode) ID() int32          { return -1 }
func (n PointNode) Position() Position { return n.Pos }

// ConnectorEdge 连接精确坐标与图节点的步行虚拟边
type ConnectorEdge struct {
	from, to INode
	length   float64
}

// NewConnector 创建从from到to的步行虚拟边，长度为两点间距离
func NewConnector(from, to INode) *ConnectorEdge {
	return &ConnectorEdge{from: from, to: to, length: Distance(from.Position(), to.Position())}
}

func (e *ConnectorEdge) ID() int32                   { return -1 }
func (e *ConnectorEdge) From() INode                 { return e.from }
func (e *ConnectorEdge) To() INode                   { return e.to }
func (e *ConnectorEdge) Length() float64             { return e.length }
func (e *ConnectorEdge) MaxSpeed() float64           { return 0 }
func (e *ConnectorEdge) HasModality(m Modality) bool { return m == Modality_WALKING }
