package route_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/graph"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/route"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/station"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/config"
)

var (
	tripStart = pos(0, 0.2)
	tripGoal  = pos(19, 0.2)
)

func assertEndpoints(t *testing.T, it *route.Itinerary, start, goal entity.Position) {
	t.Helper()
	legs := it.Legs()
	require.NotEmpty(t, legs)
	assert.Equal(t, start, legs[0].Route.Start())
	assert.Equal(t, goal, legs[len(legs)-1].Route.Goal())
}

func TestWalking(t *testing.T) {
	w := newWorld(t)
	r := w.router()
	p := newTraveler()

	it, err := r.Compose(p, tripStart, tripGoal, entity.Mode_WALKING)
	require.NoError(t, err)
	assert.Equal(t, []entity.Mode{entity.Mode_WALKING}, it.Modes())
	assertEndpoints(t, it, tripStart, tripGoal)
	assert.GreaterOrEqual(t, it.TotalLength(), entity.Distance(tripStart, tripGoal))

	// 起终点最近节点相同：起点→节点→终点
	it, err = r.Compose(p, pos(0, 0.1), pos(0, -0.1), entity.Mode_WALKING)
	require.NoError(t, err)
	require.Equal(t, 1, it.Len())
	assert.Len(t, it.Legs()[0].Route.Edges(), 2)
	assert.InDelta(t, entity.Distance(pos(0, 0.1), pos(0, -0.1)), it.TotalLength(), 1e-6)

	it, err = r.Compose(p, pos(0, 0), pos(0, 0), entity.Mode_WALKING)
	require.NoError(t, err)
	assert.Zero(t, it.Len())
	assert.True(t, it.GoalReached())
}

func TestWalkingWithoutWalkingEdges(t *testing.T) {
	g := graph.New()
	g.AddNode(1, pos(0, 0))
	g.AddNode(2, pos(1, 0))
	_, err := g.AddEdge(1, 1, 2, 0, 0, entity.Modality_CAR_DRIVING)
	require.NoError(t, err)
	r := route.NewRouter(g, nil, route.DefaultOptions(), nil)

	it := r.Search(newTraveler(), pos(0, 1), pos(3, 1), entity.Mode_WALKING)
	require.NotNil(t, it)
	assert.True(t, errors.Is(it.FallbackReason(), route.ErrGraphModalityMissing))
	assert.Equal(t, []entity.Mode{entity.Mode_WALKING}, it.Modes())
	assert.InDelta(t, entity.Distance(pos(0, 1), pos(3, 1)), it.TotalLength(), 1e-6)
}

func TestFallbackCoverage(t *testing.T) {
	w := newWorld(t)
	w.layers.Stations = nil
	r := w.router()
	all := make([]entity.Mode, 0, entity.ModeCount)
	for i := 0; i < entity.ModeCount; i++ {
		all = append(all, entity.Mode(i))
	}
	p := newTraveler(all...)
	for _, m := range all {
		it := r.Search(p, tripStart, tripGoal, m)
		require.NotNil(t, it, m.String())
		assert.Equal(t, m, it.Requested())
		assert.GreaterOrEqual(t, it.TotalLength(), entity.Distance(tripStart, tripGoal), m.String())
		if it.FallbackReason() != nil {
			assert.Equal(t, []entity.Mode{entity.Mode_WALKING}, it.Modes(), m.String())
		}
	}
}

func TestOffStreetStart(t *testing.T) {
	w := newWorld(t)
	// 资源都靠近节点1，起点距节点1约60米，与资源共用最近的步行节点
	start := pos(-0.9, 0)
	w.carParking.Add(1, pos(18, 0.1), 2)
	w.bikeRental.Add(1, pos(0, 0.1), 4, 2, 1000)
	w.bikeRental.Add(2, pos(17, 0.1), 4, 0, 2000)
	w.trains.Add(1, "A", pos(0, -0.1), 1)
	w.trains.Add(2, "B", pos(17, -0.1), 1)
	p := newTraveler(entity.Mode_CAR_DRIVING, entity.Mode_CYCLING_OWN_BIKE, entity.Mode_CYCLING_RENTAL_BIKE, entity.Mode_TRAIN)
	p.car = newCar(1, pos(0, 0.1))
	p.bike = vehicle.New(7, entity.VehicleKind_OWN_BICYCLE, pos(0, 0.1), 0)
	r := w.router()

	for _, m := range []entity.Mode{
		entity.Mode_CAR_DRIVING, entity.Mode_CYCLING_OWN_BIKE, entity.Mode_CYCLING_RENTAL_BIKE, entity.Mode_TRAIN,
	} {
		it := r.Search(p, start, tripGoal, m)
		require.Nil(t, it.FallbackReason(), m.String())
		assert.Equal(t, []entity.Mode{entity.Mode_WALKING, m, entity.Mode_WALKING}, it.Modes(), m.String())
		assertEndpoints(t, it, start, tripGoal)
		assert.GreaterOrEqual(t, it.TotalLength(), entity.Distance(start, tripGoal), m.String())
		for _, d := range it.SwitchPointDistances() {
			assert.InDelta(t, 0, d, 1e-6, m.String())
		}
	}
}

func TestCapabilityMissing(t *testing.T) {
	w := newWorld(t)
	r := w.router()

	_, err := r.Compose(newTraveler(), tripStart, tripGoal, entity.Mode_CAR_DRIVING)
	assert.True(t, errors.Is(err, route.ErrCapabilityMissing))

	// 具备能力但没有汽车
	_, err = r.Compose(newTraveler(entity.Mode_CAR_DRIVING), tripStart, tripGoal, entity.Mode_CAR_DRIVING)
	assert.True(t, errors.Is(err, route.ErrCapabilityMissing))

	_, err = r.Compose(newTraveler(entity.Mode_CO_DRIVING), tripStart, tripGoal, entity.Mode_CO_DRIVING)
	assert.True(t, errors.Is(err, route.ErrCapabilityMissing))

	it := r.Search(newTraveler(), tripStart, tripGoal, entity.Mode_CAR_DRIVING)
	assert.True(t, errors.Is(it.FallbackReason(), route.ErrCapabilityMissing))
	assert.Equal(t, entity.Mode_WALKING, it.DominantMode())
}

func TestDriving(t *testing.T) {
	w := newWorld(t)
	lot := w.carParking.Add(1, pos(18, 0.1), 2)
	p := newTraveler(entity.Mode_CAR_DRIVING)
	p.car = newCar(1, pos(1, 0.1))

	it, err := w.router().Compose(p, tripStart, tripGoal, entity.Mode_CAR_DRIVING)
	require.NoError(t, err)
	assert.Equal(t, []entity.Mode{entity.Mode_WALKING, entity.Mode_CAR_DRIVING, entity.Mode_WALKING}, it.Modes())
	assertEndpoints(t, it, tripStart, tripGoal)
	legs := it.Legs()
	assert.Equal(t, lot, legs[1].Resource)
	assert.Equal(t, int32(2), legs[1].Route.StartNode().ID())
	assert.Equal(t, int32(19), legs[1].Route.GoalNode().ID())
	assert.Greater(t, it.ExpectedTravelTime(p), 0.)
}

func TestDrivingWithoutFreeParking(t *testing.T) {
	w := newWorld(t)
	lot := w.carParking.Add(1, pos(18, 0.1), 1)
	require.True(t, lot.Enter(newCar(99, pos(18, 0.1))))
	p := newTraveler(entity.Mode_CAR_DRIVING)
	p.car = newCar(1, pos(1, 0.1))

	_, err := w.router().Compose(p, tripStart, tripGoal, entity.Mode_CAR_DRIVING)
	assert.True(t, errors.Is(err, route.ErrResourceUnavailable))
	assert.True(t, route.Retryable(err))
}

func TestDrivingReplanFromActiveNode(t *testing.T) {
	w := newWorld(t)
	full := w.carParking.Add(1, pos(18, 0.1), 1)
	require.True(t, full.Enter(newCar(99, pos(18, 0.1))))
	free := w.carParking.Add(2, pos(15, 0.1), 1)

	p := newTraveler(entity.Mode_CAR_DRIVING)
	p.car = newCar(1, pos(9, 0))
	p.active = entity.VehicleHandle{Kind: entity.VehicleKind_OWN_CAR, Vehicle: p.car}
	p.node = w.node(10)

	legs, err := w.router().ComposeLegs(p, pos(9, 0), tripGoal, entity.Mode_CAR_DRIVING)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, entity.Mode_CAR_DRIVING, legs[0].Mode)
	assert.Equal(t, free, legs[0].Resource)
	assert.Equal(t, int32(10), legs[0].Route.StartNode().ID())
	assert.Equal(t, int32(16), legs[0].Route.GoalNode().ID())
	assert.Equal(t, entity.Mode_WALKING, legs[1].Mode)
	assert.Equal(t, tripGoal, legs[1].Route.Goal())
}

func TestRentalCycling(t *testing.T) {
	w := newWorld(t)
	pick := w.bikeRental.Add(1, pos(2, 0.1), 4, 2, 1000)
	drop := w.bikeRental.Add(2, pos(17, 0.1), 4, 0, 2000)
	p := newTraveler(entity.Mode_CYCLING_RENTAL_BIKE)
	r := w.router()

	it, err := r.Compose(p, tripStart, tripGoal, entity.Mode_CYCLING_RENTAL_BIKE)
	require.NoError(t, err)
	assert.Equal(t, []entity.Mode{entity.Mode_WALKING, entity.Mode_CYCLING_RENTAL_BIKE, entity.Mode_WALKING}, it.Modes())
	assertEndpoints(t, it, tripStart, tripGoal)
	legs := it.Legs()
	assert.Equal(t, int32(3), legs[0].Route.GoalNode().ID())
	assert.Equal(t, drop, legs[1].Resource)

	// 骑行中重新选择还车站
	bike := pick.Rent()
	require.NotNil(t, bike)
	p.active = entity.VehicleHandle{Kind: entity.VehicleKind_RENTAL_BICYCLE, Vehicle: bike}
	p.node = w.node(10)
	rest, err := r.ComposeLegs(p, pos(9, 0), tripGoal, entity.Mode_CYCLING_RENTAL_BIKE)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, int32(18), rest[0].Route.GoalNode().ID())
	assert.Equal(t, drop, rest[0].Resource)
}

func TestRentalWithoutVehicles(t *testing.T) {
	w := newWorld(t)
	w.bikeRental.Add(1, pos(2, 0.1), 4, 0, 1000)
	w.bikeRental.Add(2, pos(17, 0.1), 4, 0, 2000)
	_, err := w.router().Compose(newTraveler(entity.Mode_CYCLING_RENTAL_BIKE), tripStart, tripGoal, entity.Mode_CYCLING_RENTAL_BIKE)
	assert.True(t, errors.Is(err, route.ErrResourceUnavailable))
}

func TestOwnCycling(t *testing.T) {
	w := newWorld(t)
	p := newTraveler(entity.Mode_CYCLING_OWN_BIKE)
	p.bike = vehicle.New(7, entity.VehicleKind_OWN_BICYCLE, pos(1, 0.1), 0)

	it, err := w.router().Compose(p, tripStart, tripGoal, entity.Mode_CYCLING_OWN_BIKE)
	require.NoError(t, err)
	assert.Equal(t, []entity.Mode{entity.Mode_WALKING, entity.Mode_CYCLING_OWN_BIKE, entity.Mode_WALKING}, it.Modes())
	assertEndpoints(t, it, tripStart, tripGoal)
	assert.Nil(t, it.Legs()[1].Resource)
}

func TestSearchAnyPrefersFaster(t *testing.T) {
	w := newWorld(t)
	w.carParking.Add(1, pos(18, 0.1), 2)
	p := newTraveler(entity.Mode_CAR_DRIVING)
	p.car = newCar(1, pos(1, 0.1))
	r := w.router()

	it := r.SearchAny(p, tripStart, tripGoal, []entity.Mode{entity.Mode_WALKING, entity.Mode_CAR_DRIVING})
	assert.Equal(t, entity.Mode_CAR_DRIVING, it.Requested())
	assert.Equal(t, entity.Mode_CAR_DRIVING, it.DominantMode())
	assert.Nil(t, it.FallbackReason())

	walking := r.Search(p, tripStart, tripGoal, entity.Mode_WALKING)
	assert.Less(t, it.ExpectedTravelTime(p), walking.ExpectedTravelTime(p))

	// 全部失败时降级为步行
	it = r.SearchAny(newTraveler(), tripStart, tripGoal, []entity.Mode{entity.Mode_CAR_DRIVING, entity.Mode_BUS})
	assert.Equal(t, []entity.Mode{entity.Mode_WALKING}, it.Modes())
	assert.Error(t, it.FallbackReason())
}

func TestSearchAnyTieKeepsEarlier(t *testing.T) {
	w := newWorld(t)
	// 渡轮与列车共用轨道节点，车站位置相同
	for i := int32(1); i <= streetLength; i++ {
		_, err := w.graph.AddEdge(i+300, i+100, i+101, 0, 0, entity.Modality_SHIP_DRIVING)
		require.NoError(t, err)
		_, err = w.graph.AddEdge(-(i + 300), i+101, i+100, 0, 0, entity.Modality_SHIP_DRIVING)
		require.NoError(t, err)
	}
	ferries := station.NewLayer(entity.Mode_FERRY, 0)
	w.layers.Stations[entity.Mode_FERRY] = ferries
	for _, l := range []*station.Layer{w.trains, ferries} {
		l.Add(1, "A", pos(2, -0.1), 1)
		l.Add(2, "B", pos(17, -0.1), 1)
	}
	opts := route.DefaultOptions()
	opts.Speeds.Transit[entity.Mode_FERRY] = opts.Speeds.Transit[entity.Mode_TRAIN]
	r := route.NewRouter(w.graph, w.layers, opts, nil)
	p := newTraveler(entity.Mode_TRAIN, entity.Mode_FERRY)

	train := r.Search(p, tripStart, tripGoal, entity.Mode_TRAIN)
	ferry := r.Search(p, tripStart, tripGoal, entity.Mode_FERRY)
	require.Nil(t, train.FallbackReason())
	require.Nil(t, ferry.FallbackReason())
	require.Equal(t, train.ExpectedTravelTime(p), ferry.ExpectedTravelTime(p))

	it := r.SearchAny(p, tripStart, tripGoal, []entity.Mode{entity.Mode_TRAIN, entity.Mode_FERRY})
	assert.Equal(t, entity.Mode_TRAIN, it.Requested())
	it = r.SearchAny(p, tripStart, tripGoal, []entity.Mode{entity.Mode_FERRY, entity.Mode_TRAIN})
	assert.Equal(t, entity.Mode_FERRY, it.Requested())
}

func TestResolveModes(t *testing.T) {
	caps := entity.NewCapabilities(entity.Mode_BUS)
	assert.Equal(t, []entity.Mode{entity.Mode_BUS, entity.Mode_WALKING},
		route.ResolveModes(caps, []entity.Mode{entity.Mode_BUS, entity.Mode_CAR_DRIVING, entity.Mode_BUS, entity.Mode_WALKING}))
	assert.Equal(t, []entity.Mode{entity.Mode_WALKING}, route.ResolveModes(caps, []entity.Mode{entity.Mode_TRAIN}))
	assert.Equal(t, []entity.Mode{entity.Mode_WALKING}, route.ResolveModes(caps, nil))
}

func TestOptionsFromConfig(t *testing.T) {
	o := route.OptionsFromConfig(config.Routing{
		WalkingSpeed: 3.6,
		TransitSpeed: config.TransitSpeed{Bus: 36},
	})
	assert.InDelta(t, 1., o.Speeds.Walking, 1e-9)
	assert.InDelta(t, 10., o.Speeds.Transit[entity.Mode_BUS], 1e-9)
	assert.InDelta(t, 50/3.6, o.Speeds.Transit[entity.Mode_TRAIN], 1e-9)
	assert.Equal(t, config.DefaultMaxStationAttempts, o.MaxStationAttempts)
}

type countingObserver struct {
	composed  map[entity.Mode]int
	fallbacks map[string]int
}

func (o *countingObserver) ObserveCompose(mode entity.Mode, err error) {
	o.composed[mode]++
}

func (o *countingObserver) ObserveFallback(requested entity.Mode, reason error) {
	o.fallbacks[route.Kind(reason)]++
}

func TestObserver(t *testing.T) {
	w := newWorld(t)
	o := &countingObserver{composed: map[entity.Mode]int{}, fallbacks: map[string]int{}}
	r := route.NewRouter(w.graph, w.layers, route.DefaultOptions(), o)

	r.Search(newTraveler(), tripStart, tripGoal, entity.Mode_WALKING)
	r.Search(newTraveler(), tripStart, tripGoal, entity.Mode_CAR_DRIVING)
	assert.Equal(t, 1, o.composed[entity.Mode_WALKING])
	assert.Equal(t, 1, o.composed[entity.Mode_CAR_DRIVING])
	assert.Equal(t, map[string]int{"capability_missing": 1}, o.fallbacks)
}

func TestGraphModalityMissing(t *testing.T) {
	w := newWorld(t)
	ferries := station.NewLayer(entity.Mode_FERRY, 0)
	ferries.Add(1, "A", pos(2, -0.1), 1)
	ferries.Add(2, "B", pos(17, -0.1), 1)
	w.layers.Stations[entity.Mode_FERRY] = ferries
	_, err := w.router().Compose(newTraveler(entity.Mode_FERRY), tripStart, tripGoal, entity.Mode_FERRY)
	assert.True(t, errors.Is(err, route.ErrGraphModalityMissing))
}
