package route_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/graph"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/parking"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/route"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/rental"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/station"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/vehicle"
)

// pos x方向1单位约66米，y方向1单位约111米
func pos(x, y float64) entity.Position {
	return entity.Position{10 + x*0.001, 53.5 + y*0.001}
}

const streetLength = 20

// world 测试路网
//
//	街道：节点1..21位于pos(0..20, 0)，双向通行步行、骑行、机动车，限速50km/h
//	轨道：节点101..121位于pos(0..20, -0.2)，双向通行列车
//	孤岛：节点50-51位于pos(0.5..1.5, 1.1)，仅步行，与街道不连通
type world struct {
	graph      *graph.Graph
	carParking *parking.Layer
	bikeRental *rental.Layer
	trains     *station.Layer
	layers     *entity.Layers
}

func newWorld(t *testing.T) *world {
	g := graph.New()
	link := func(id, a, b int32, speed float64, ms ...entity.Modality) {
		_, err := g.AddEdge(id, a, b, 0, speed, ms...)
		require.NoError(t, err)
		_, err = g.AddEdge(-id, b, a, 0, speed, ms...)
		require.NoError(t, err)
	}
	for i := 0; i <= streetLength; i++ {
		g.AddNode(int32(i+1), pos(float64(i), 0))
		g.AddNode(int32(i+101), pos(float64(i), -0.2))
	}
	for i := 1; i <= streetLength; i++ {
		link(int32(i), int32(i), int32(i+1), 50/3.6,
			entity.Modality_WALKING, entity.Modality_CYCLING, entity.Modality_CAR_DRIVING)
		link(int32(i+100), int32(i+100), int32(i+101), 0, entity.Modality_TRAIN_DRIVING)
	}
	g.AddNode(50, pos(0.5, 1.1))
	g.AddNode(51, pos(1.5, 1.1))
	link(50, 50, 51, 0, entity.Modality_WALKING)

	w := &world{
		graph:      g,
		carParking: parking.NewLayer(entity.VehicleKind_OWN_CAR),
		bikeRental: rental.NewLayer(entity.VehicleKind_RENTAL_BICYCLE),
		trains:     station.NewLayer(entity.Mode_TRAIN, 0),
	}
	w.layers = &entity.Layers{
		CarParking:    w.carParking,
		BicycleRental: w.bikeRental,
		Stations:      map[entity.Mode]entity.IStationLayer{entity.Mode_TRAIN: w.trains},
	}
	return w
}

func (w *world) router() *route.Router {
	return route.NewRouter(w.graph, w.layers, route.DefaultOptions(), nil)
}

func (w *world) node(id int32) entity.INode {
	n, ok := w.graph.Node(id)
	if !ok {
		panic("no node")
	}
	return n
}

type traveler struct {
	id     int32
	caps   entity.Capabilities
	car    entity.IVehicle
	bike   entity.IVehicle
	active entity.VehicleHandle
	node   entity.INode
}

func newTraveler(modes ...entity.Mode) *traveler {
	return &traveler{id: 1, caps: entity.NewCapabilities(modes...), active: entity.NoVehicle}
}

func (p *traveler) ID() int32                         { return p.id }
func (p *traveler) Capabilities() entity.Capabilities { return p.caps }
func (p *traveler) WalkingSpeed() float64             { return 0 }
func (p *traveler) Active() entity.VehicleHandle      { return p.active }
func (p *traveler) ActiveNode() entity.INode          { return p.node }
func (p *traveler) OwnCar() entity.IVehicle           { return p.car }
func (p *traveler) OwnBicycle() entity.IVehicle       { return p.bike }

func newCar(id int32, p entity.Position) *vehicle.Vehicle {
	return vehicle.New(id, entity.VehicleKind_OWN_CAR, p, 0)
}
