package task

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/graph"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/parking"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/schedule"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/rental"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/station"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/config"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/input"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/randengine"
)

// 租赁车辆ID的起始值，与出行者自有交通工具的ID区分
const rentalVehicleIDBase = 1 << 24

// world 由场景构建的仿真世界
type world struct {
	graph   *graph.Graph
	layers  *entity.Layers
	transit *vehicle.Manager
	specs   []person.Spec

	carParking     *parking.Layer
	bicycleParking *parking.Layer
}

// buildWorld 根据场景构建路网、资源图层、公共交通与出行者初始化数据
// 参数：s-已检查的场景，rc-运行时配置
// 算法说明：
// 1. 路网：节点与边，双向边生成ID为负的反向边
// 2. 资源：停车场（按比例预占用）、租赁站（投放车辆）、各公共交通方式的车站图层
// 3. 公共交通：每条线路的每辆车从首站出发，速度未指定时使用配置的估计速度
// 4. 出行者：自有交通工具停放在指定位置或家附近最近的空闲停车场
func buildWorld(s *input.Scenario, rc *config.RuntimeConfig) (*world, error) {
	w := &world{layers: &entity.Layers{Stations: make(map[entity.Mode]entity.IStationLayer)}}
	var err error
	if w.graph, err = buildGraph(s); err != nil {
		return nil, err
	}
	w.buildResources(s, rc)
	if w.transit, err = w.buildTransit(s, rc); err != nil {
		return nil, err
	}
	w.specs = lo.Map(s.Persons, func(p input.Person, _ int) person.Spec {
		return w.buildPerson(p)
	})
	return w, nil
}

func toPosition(p input.Point) entity.Position {
	return entity.Position(p)
}

func parseModes(names []string) []entity.Mode {
	return lo.FilterMap(names, func(name string, _ int) (entity.Mode, bool) {
		m, err := entity.ParseMode(name)
		return m, err == nil
	})
}

func buildGraph(s *input.Scenario) (*graph.Graph, error) {
	g := graph.New()
	for _, n := range s.Nodes {
		g.AddNode(n.ID, toPosition(n.Position))
	}
	for _, e := range s.Edges {
		ms := lo.FilterMap(e.Modalities, func(name string, _ int) (entity.Modality, bool) {
			m, err := entity.ParseModality(name)
			return m, err == nil
		})
		if _, err := g.AddEdge(e.ID, e.From, e.To, e.Length, e.MaxSpeed, ms...); err != nil {
			return nil, fmt.Errorf("build graph: %w", err)
		}
		if e.Bidirectional {
			if _, err := g.AddEdge(-e.ID, e.To, e.From, e.Length, e.MaxSpeed, ms...); err != nil {
				return nil, fmt.Errorf("build graph: %w", err)
			}
		}
	}
	log.Infof("graph: %d nodes, %d edges", len(s.Nodes), len(s.Edges))
	return g, nil
}

func (w *world) buildResources(s *input.Scenario, rc *config.RuntimeConfig) {
	if len(s.Parking.Car) > 0 {
		w.carParking = parking.NewLayer(entity.VehicleKind_OWN_CAR)
		for _, l := range s.Parking.Car {
			w.carParking.Add(l.ID, toPosition(l.Position), l.Capacity)
		}
		if s.Parking.Occupancy > 0 {
			w.carParking.UpdateOccupancy(s.Parking.Occupancy, randengine.New(rc.C.Seed))
		}
		w.layers.CarParking = w.carParking
	}
	if len(s.Parking.Bicycle) > 0 {
		w.bicycleParking = parking.NewLayer(entity.VehicleKind_OWN_BICYCLE)
		for _, l := range s.Parking.Bicycle {
			w.bicycleParking.Add(l.ID, toPosition(l.Position), l.Capacity)
		}
		w.layers.BicycleParking = w.bicycleParking
	}

	nextID := int32(rentalVehicleIDBase)
	buildRental := func(kind entity.VehicleKind, stations []input.RentalStation) *rental.Layer {
		layer := rental.NewLayer(kind)
		for _, r := range stations {
			layer.Add(r.ID, toPosition(r.Position), r.Capacity, r.Count, nextID)
			nextID += int32(r.Capacity)
		}
		return layer
	}
	if len(s.Rental.Bicycle) > 0 {
		w.layers.BicycleRental = buildRental(entity.VehicleKind_RENTAL_BICYCLE, s.Rental.Bicycle)
	}
	if len(s.Rental.Car) > 0 {
		w.layers.CarRental = buildRental(entity.VehicleKind_RENTAL_CAR, s.Rental.Car)
	}

	// 车站所属线路
	lines := make(map[int32][]int32)
	for _, l := range s.Lines {
		for _, id := range lo.Uniq(l.Stops) {
			lines[id] = append(lines[id], l.ID)
		}
	}
	for _, st := range s.Stations {
		mode, _ := entity.ParseMode(st.Mode)
		layer, ok := w.layers.Stations[mode].(*station.Layer)
		if !ok {
			layer = station.NewLayer(mode, 0)
			w.layers.Stations[mode] = layer
		}
		layer.Add(st.ID, st.Name, toPosition(st.Position), lines[st.ID]...)
	}
}

func (w *world) buildTransit(s *input.Scenario, rc *config.RuntimeConfig) (*vehicle.Manager, error) {
	speeds := map[entity.Mode]float64{
		entity.Mode_BUS:   rc.R.TransitSpeed.Bus / 3.6,
		entity.Mode_TRAIN: rc.R.TransitSpeed.Train / 3.6,
		entity.Mode_FERRY: rc.R.TransitSpeed.Ferry / 3.6,
	}
	vehicles := make([]*vehicle.TransitVehicle, 0)
	for _, l := range s.Lines {
		mode, _ := entity.ParseMode(l.Mode)
		modality, _ := entity.TransitModality(mode)
		layer := w.layers.Stations[mode].(*station.Layer)
		stops := make([]vehicle.IDock, 0, len(l.Stops))
		for _, id := range l.Stops {
			st, err := layer.Get(id)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", l.ID, err)
			}
			stops = append(stops, st)
		}
		speed := l.Speed
		if speed <= 0 {
			speed = speeds[mode]
		}
		for _, id := range l.Vehicles {
			v, err := vehicle.NewTransitVehicle(id, mode, l.ID, stops, w.graph, modality, l.Capacity, speed, l.Dwell)
			if err != nil {
				return nil, fmt.Errorf("build transit: %w", err)
			}
			vehicles = append(vehicles, v)
		}
	}
	log.Infof("transit: %d lines, %d vehicles", len(s.Lines), len(vehicles))
	return vehicle.NewManager(vehicles), nil
}

// ownVehicle 创建出行者的自有交通工具
// 说明：未指定位置时停入家附近最近的空闲停车场，无停车场或无空位时停放在家门口
func ownVehicle(spec *input.OwnVehicle, kind entity.VehicleKind, home entity.Position, lots *parking.Layer) entity.IVehicle {
	if spec == nil {
		return nil
	}
	if spec.Position != nil {
		return vehicle.New(spec.ID, kind, toPosition(*spec.Position), spec.MaxSpeed)
	}
	v := vehicle.New(spec.ID, kind, home, spec.MaxSpeed)
	if lots == nil {
		return v
	}
	for {
		lot := lots.Nearest(home, func(r entity.IResource) bool { return r.HasFreeCapacity() })
		if lot == nil {
			log.Warnf("no free %v parking for vehicle %d, park at %v", kind, spec.ID, home)
			return v
		}
		if lot.Enter(v) {
			return v
		}
	}
}

func (w *world) buildPerson(p input.Person) person.Spec {
	home := toPosition(p.Home)
	return person.Spec{
		ID:           p.ID,
		Home:         home,
		Capabilities: parseModes(p.Capabilities),
		WalkingSpeed: p.WalkingSpeed,
		OwnCar:       ownVehicle(p.OwnCar, entity.VehicleKind_OWN_CAR, home, w.carParking),
		OwnBicycle:   ownVehicle(p.OwnBicycle, entity.VehicleKind_OWN_BICYCLE, home, w.bicycleParking),
		Trips: lo.Map(p.Trips, func(t input.Trip, _ int) schedule.Trip {
			return schedule.Trip{
				Goal:          toPosition(t.Goal),
				Modes:         parseModes(t.Modes),
				DepartureTime: t.DepartureTime,
				WaitTime:      t.WaitTime,
			}
		}),
	}
}
