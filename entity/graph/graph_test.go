package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/graph"
)

func pos(x, y float64) entity.Position {
	return entity.Position{10 + x*0.001, 53.5 + y*0.001}
}

// 1 -- 2 -- 3
// |         |
// 4 ------- 5     6(孤立的步行节点)
func newTestGraph(t *testing.T) *graph.Graph {
	g := graph.New()
	g.AddNode(1, pos(0, 1))
	g.AddNode(2, pos(1, 1))
	g.AddNode(3, pos(2, 1))
	g.AddNode(4, pos(0, 0))
	g.AddNode(5, pos(2, 0))
	g.AddNode(6, pos(5, 5))
	g.AddNode(7, pos(6, 5))
	link := func(id, a, b int32, length, speed float64, ms ...entity.Modality) {
		_, err := g.AddEdge(id, a, b, length, speed, ms...)
		require.NoError(t, err)
		_, err = g.AddEdge(-id, b, a, length, speed, ms...)
		require.NoError(t, err)
	}
	walkDrive := []entity.Modality{entity.Modality_WALKING, entity.Modality_CAR_DRIVING}
	link(1, 1, 2, 0, 5, walkDrive...)
	link(2, 2, 3, 0, 5, walkDrive...)
	link(3, 1, 4, 0, 30, walkDrive...)
	link(4, 4, 5, 0, 30, walkDrive...)
	link(5, 5, 3, 0, 30, walkDrive...)
	link(6, 6, 7, 0, 0, entity.Modality_WALKING)
	return g
}

func TestShortestAndFastest(t *testing.T) {
	g := newTestGraph(t)
	n1, _ := g.Node(1)
	n3, _ := g.Node(3)

	shortest := g.ShortestRoute(n1, n3, nil)
	require.NotNil(t, shortest)
	assert.Len(t, shortest.Edges(), 2)
	assert.Equal(t, int32(2), shortest.GoalNode().ID())

	fastest := g.FastestRoute(n1, n3, entity.ModalityFilter(entity.Modality_CAR_DRIVING))
	require.NotNil(t, fastest)
	assert.Len(t, fastest.Edges(), 3)
	assert.Greater(t, fastest.Length(), shortest.Length())
	assert.Equal(t, n1.Position(), fastest.Start())
	assert.Equal(t, n3.Position(), fastest.Goal())
}

func TestUnreachableAndSameNode(t *testing.T) {
	g := newTestGraph(t)
	n1, _ := g.Node(1)
	n6, _ := g.Node(6)
	assert.Nil(t, g.ShortestRoute(n1, n6, nil))
	assert.Nil(t, g.ShortestRoute(n1, n1, entity.ModalityFilter(entity.Modality_TRAIN_DRIVING)).Edges())
	assert.True(t, g.ShortestRoute(n1, n1, nil).GoalReached())

	n2, _ := g.Node(2)
	assert.Nil(t, g.ShortestRoute(n1, n2, entity.ModalityFilter(entity.Modality_TRAIN_DRIVING)))
}

func TestNearestNode(t *testing.T) {
	g := newTestGraph(t)
	n := g.NearestNode(pos(5.2, 5))
	require.NotNil(t, n)
	assert.Equal(t, int32(6), n.ID())

	n = g.NearestNode(pos(5.2, 5), entity.Modality_CAR_DRIVING)
	require.NotNil(t, n)
	assert.Equal(t, int32(3), n.ID())

	assert.Nil(t, g.NearestNode(pos(0, 0), entity.Modality_SHIP_DRIVING))
	assert.True(t, g.HasModality(entity.Modality_WALKING))
	assert.False(t, g.HasModality(entity.Modality_TRAIN_DRIVING))
}

func TestNearestNodes(t *testing.T) {
	g := newTestGraph(t)
	nodes := g.NearestNodes(pos(0, 0), 0, 3)
	require.Len(t, nodes, 3)
	assert.Equal(t, int32(4), nodes[0].ID())
	assert.Equal(t, int32(1), nodes[1].ID())

	nodes = g.NearestNodes(pos(0, 0), 50, 3)
	assert.Len(t, nodes, 1)
}

func TestEdgeValidation(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.AddEdge(100, 1, 99, 0, 0, entity.Modality_WALKING)
	assert.Error(t, err)
	_, err = g.AddEdge(101, 1, 2, 0, 0)
	assert.Error(t, err)
	_, err = g.AddEdge(1, 1, 2, 0, 0, entity.Modality_WALKING)
	assert.Error(t, err)

	e, err := g.AddEdge(102, 1, 2, 1, 0, entity.Modality_WALKING)
	require.NoError(t, err)
	assert.InDelta(t, entity.Distance(pos(0, 1), pos(1, 1)), e.Length(), 1e-9)
}

func TestEntities(t *testing.T) {
	g := newTestGraph(t)
	n1, _ := g.Node(1)
	walker := &struct{ name string }{"w"}
	assert.False(t, g.Insert(walker, nil))
	assert.True(t, g.Insert(walker, n1))
	assert.True(t, g.Contains(walker))
	assert.Equal(t, 1, g.EntityCount())
	assert.True(t, g.Remove(walker))
	assert.False(t, g.Remove(walker))
	assert.False(t, g.Contains(walker))
}
