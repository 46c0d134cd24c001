package route_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/route"
)

func stationAt(x float64) entity.Position {
	return pos(x, -0.1)
}

func rideStations(t *testing.T, it *route.Itinerary) []int32 {
	t.Helper()
	ids := make([]int32, 0)
	for _, l := range it.Legs() {
		if l.Mode == entity.Mode_TRAIN {
			require.NotNil(t, l.Station)
			ids = append(ids, l.Station.ID())
		}
	}
	return ids
}

func TestTransitDirect(t *testing.T) {
	w := newWorld(t)
	w.trains.Add(1, "A", stationAt(2), 1)
	w.trains.Add(2, "B", stationAt(17), 1)

	it, err := w.router().Compose(newTraveler(entity.Mode_TRAIN), tripStart, tripGoal, entity.Mode_TRAIN)
	require.NoError(t, err)
	assert.Equal(t, []entity.Mode{entity.Mode_WALKING, entity.Mode_TRAIN, entity.Mode_WALKING}, it.Modes())
	assertEndpoints(t, it, tripStart, tripGoal)
	assert.Equal(t, []int32{2}, rideStations(t, it))
	legs := it.Legs()
	ride := legs[1].Route
	assert.Equal(t, int32(103), ride.StartNode().ID())
	assert.Equal(t, int32(118), ride.GoalNode().ID())
	// 步行段经车站接到轨道节点
	assert.Equal(t, int32(103), legs[0].Route.GoalNode().ID())
	assert.Equal(t, int32(118), legs[2].Route.StartNode().ID())
	for _, d := range it.SwitchPointDistances() {
		assert.InDelta(t, 0, d, 1e-6)
	}
	assert.GreaterOrEqual(t, it.TotalLength(), entity.Distance(tripStart, tripGoal))
}

func TestTransitPrefersShorterAccessWalk(t *testing.T) {
	w := newWorld(t)
	// 最近的车站A位于只与节点5相连的步行支路末端
	w.graph.AddNode(60, pos(0.5, 0.5))
	_, err := w.graph.AddEdge(60, 5, 60, 0, 0, entity.Modality_WALKING)
	require.NoError(t, err)
	_, err = w.graph.AddEdge(-60, 60, 5, 0, 0, entity.Modality_WALKING)
	require.NoError(t, err)
	w.trains.Add(5, "A", pos(0.5, 0.55), 1)
	w.trains.Add(1, "B", stationAt(2), 1)
	w.trains.Add(2, "C", stationAt(17), 1)
	require.Less(t, entity.Distance(tripStart, pos(0.5, 0.55)), entity.Distance(tripStart, stationAt(2)))

	it, err := w.router().Compose(newTraveler(entity.Mode_TRAIN), tripStart, tripGoal, entity.Mode_TRAIN)
	require.NoError(t, err)
	legs := it.Legs()
	require.Len(t, legs, 3)
	assert.Equal(t, int32(103), legs[1].Route.StartNode().ID())
	for _, e := range legs[0].Route.Edges() {
		assert.NotEqual(t, int32(60), e.To().ID())
	}
}

func TestTransitSingleTransfer(t *testing.T) {
	w := newWorld(t)
	w.trains.Add(1, "A", stationAt(2), 1)
	w.trains.Add(3, "X", stationAt(10), 1, 2)
	w.trains.Add(2, "B", stationAt(17), 2)

	it, err := w.router().Compose(newTraveler(entity.Mode_TRAIN), tripStart, tripGoal, entity.Mode_TRAIN)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 2}, rideStations(t, it))
	assert.Equal(t, 4, it.Len())
}

func TestTransitDoubleTransfer(t *testing.T) {
	w := newWorld(t)
	w.trains.Add(1, "A", stationAt(2), 1)
	w.trains.Add(3, "X", stationAt(6), 1, 3)
	w.trains.Add(4, "Y", stationAt(12), 3, 2)
	w.trains.Add(2, "B", stationAt(17), 2)

	it, err := w.router().Compose(newTraveler(entity.Mode_TRAIN), tripStart, tripGoal, entity.Mode_TRAIN)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 4, 2}, rideStations(t, it))
	assert.Equal(t, 5, it.Len())
	legs := it.Legs()
	for i := 2; i < 4; i++ {
		assert.Equal(t, legs[i-1].Route.GoalNode().ID(), legs[i].Route.StartNode().ID())
	}
	assertEndpoints(t, it, tripStart, tripGoal)
}

func TestTransitNoConnection(t *testing.T) {
	w := newWorld(t)
	w.trains.Add(1, "A", stationAt(2), 1)
	w.trains.Add(2, "B", stationAt(17), 2)
	r := w.router()
	p := newTraveler(entity.Mode_TRAIN)

	_, err := r.Compose(p, tripStart, tripGoal, entity.Mode_TRAIN)
	assert.True(t, errors.Is(err, route.ErrNoConnectingRoute))
	assert.False(t, route.Retryable(err))

	it := r.Search(p, tripStart, tripGoal, entity.Mode_TRAIN)
	assert.True(t, errors.Is(it.FallbackReason(), route.ErrNoConnectingRoute))
	assert.Equal(t, []entity.Mode{entity.Mode_WALKING}, it.Modes())
}

func TestTransitSameStation(t *testing.T) {
	w := newWorld(t)
	w.trains.Add(1, "A", stationAt(2), 1)
	w.trains.Add(2, "B", stationAt(17), 1)
	_, err := w.router().Compose(newTraveler(entity.Mode_TRAIN), tripStart, pos(4, 0.2), entity.Mode_TRAIN)
	assert.True(t, errors.Is(err, route.ErrNoConnectingRoute))
}

func TestTransitExcludesUnreachableStation(t *testing.T) {
	w := newWorld(t)
	// 最近的车站只能从孤岛步行到达
	w.trains.Add(9, "Island", pos(0.5, 1.0), 1)
	w.trains.Add(1, "A", stationAt(2), 1)
	w.trains.Add(2, "B", stationAt(17), 1)
	start := pos(0, 0.3)

	it, err := w.router().Compose(newTraveler(entity.Mode_TRAIN), start, tripGoal, entity.Mode_TRAIN)
	require.NoError(t, err)
	legs := it.Legs()
	require.Len(t, legs, 3)
	assert.Equal(t, int32(103), legs[0].Route.GoalNode().ID())
	assert.Equal(t, int32(103), legs[1].Route.StartNode().ID())
}

func TestTransitAttemptsExhausted(t *testing.T) {
	w := newWorld(t)
	w.trains.Add(9, "Island", pos(0.5, 1.0), 1)
	opts := route.DefaultOptions()
	opts.MaxStationAttempts = 1
	w.trains.Add(1, "A", stationAt(2), 1)
	w.trains.Add(2, "B", stationAt(17), 1)
	r := route.NewRouter(w.graph, w.layers, opts, nil)

	_, err := r.Compose(newTraveler(entity.Mode_TRAIN), pos(0, 0.3), tripGoal, entity.Mode_TRAIN)
	assert.True(t, errors.Is(err, route.ErrResourceUnavailable))
}
