package person

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/multimodal-sim/clock"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/graph"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/parking"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/route"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/schedule"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/rental"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/station"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/multimodal-sim/output"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/config"
)

// pos x方向1单位约66米，y方向1单位约111米
func pos(x, y float64) entity.Position {
	return entity.Position{10 + x*0.001, 53.5 + y*0.001}
}

func stationAt(x float64) entity.Position {
	return pos(x, -0.1)
}

var (
	home = pos(0, 0.2)
	work = pos(19, 0.2)
)

// testContext 测试用任务上下文
//
//	街道：节点1..21位于pos(0..20, 0)，双向通行步行、骑行、机动车，限速50km/h
//	轨道：节点101..121位于pos(0..20, -0.2)，双向通行列车
type testContext struct {
	clock  *clock.Clock
	graph  *graph.Graph
	layers *entity.Layers
	config *config.RuntimeConfig

	carParking *parking.Layer
	bikeRental *rental.Layer
	trains     *station.Layer
	transit    *vehicle.Manager

	sink     *output.MemorySink
	observer *countingObserver
	m        *Manager
}

func (c *testContext) Clock() *clock.Clock                  { return c.clock }
func (c *testContext) Graph() entity.ISpatialGraph          { return c.graph }
func (c *testContext) Layers() *entity.Layers               { return c.layers }
func (c *testContext) RuntimeConfig() *config.RuntimeConfig { return c.config }

func newContext(t *testing.T) *testContext {
	g := graph.New()
	link := func(id, a, b int32, speed float64, ms ...entity.Modality) {
		_, err := g.AddEdge(id, a, b, 0, speed, ms...)
		require.NoError(t, err)
		_, err = g.AddEdge(-id, b, a, 0, speed, ms...)
		require.NoError(t, err)
	}
	for i := 0; i <= 20; i++ {
		g.AddNode(int32(i+1), pos(float64(i), 0))
		g.AddNode(int32(i+101), pos(float64(i), -0.2))
	}
	for i := 1; i <= 20; i++ {
		link(int32(i), int32(i), int32(i+1), 50/3.6,
			entity.Modality_WALKING, entity.Modality_CYCLING, entity.Modality_CAR_DRIVING)
		link(int32(i+100), int32(i+100), int32(i+101), 0, entity.Modality_TRAIN_DRIVING)
	}
	c := &testContext{
		clock:      clock.New(config.ControlStep{Start: 0, Total: 100000, Interval: 1}),
		graph:      g,
		config:     config.NewRuntimeConfig(config.Config{}),
		carParking: parking.NewLayer(entity.VehicleKind_OWN_CAR),
		bikeRental: rental.NewLayer(entity.VehicleKind_RENTAL_BICYCLE),
		trains:     station.NewLayer(entity.Mode_TRAIN, 0),
		transit:    vehicle.NewManager(nil),
		sink:       &output.MemorySink{},
		observer:   &countingObserver{replans: map[entity.Mode]int{}},
	}
	c.layers = &entity.Layers{
		CarParking:    c.carParking,
		BicycleRental: c.bikeRental,
		Stations:      map[entity.Mode]entity.IStationLayer{entity.Mode_TRAIN: c.trains},
	}
	return c
}

// start 创建出行者管理器，须在资源布置完成后调用
func (c *testContext) start(specs ...Spec) {
	router := route.NewRouter(c.graph, c.layers, route.OptionsFromConfig(c.config.R), nil)
	c.m = NewManager(c, router, c.sink, c.observer)
	c.m.Init(specs)
}

// tick 推进一步：公共交通车辆先于出行者更新，返回各出行者Step的错误
func (c *testContext) tick() []error {
	c.m.Prepare()
	c.transit.Update(c.clock.DT)
	errs := make([]error, 0)
	for _, p := range c.m.Persons() {
		if err := p.Step(c.clock.DT); err != nil {
			errs = append(errs, err)
		}
	}
	c.clock.Tick()
	return errs
}

// runUntil 推进直到cond成立或达到步数上限，返回期间的全部错误
func (c *testContext) runUntil(t *testing.T, steps int, cond func() bool) []error {
	t.Helper()
	errs := make([]error, 0)
	for i := 0; i < steps && !cond(); i++ {
		errs = append(errs, c.tick()...)
	}
	c.m.Prepare()
	require.True(t, cond(), "condition not reached in %d steps", steps)
	return errs
}

func (c *testContext) tripsDone(n int) func() bool {
	return func() bool { return len(c.sink.Records()) >= n }
}

func trip(goal entity.Position, modes ...entity.Mode) schedule.Trip {
	departure := 0.
	return schedule.Trip{Goal: goal, Modes: modes, DepartureTime: &departure}
}

type countingObserver struct {
	entered, failed int
	replans         map[entity.Mode]int
	trips           int
}

func (o *countingObserver) ObserveTransition(mode entity.Mode, ok bool) {
	if ok {
		o.entered++
	} else {
		o.failed++
	}
}

func (o *countingObserver) ObserveReplan(mode entity.Mode, cause error) {
	o.replans[mode]++
}

func (o *countingObserver) ObserveTripEnd(r *output.TripRecord) {
	o.trips++
}
