package input

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

var validate = validator.New()

// fieldErrors 将validator的字段错误逐条展开
func fieldErrors(err error) []error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []error{err}
	}
	return lo.Map(ves, func(fe validator.FieldError, _ int) error {
		return fmt.Errorf("%s: failed on %s=%s (value %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
	})
}

// Validate 检查场景数据正确性
// 功能：检查字段取值范围（validate标签）、ID唯一性、引用关系与枚举名字
// 返回：路网、资源或线路数据的全部错误
// 说明：出行者数据有误时记录日志并从场景中移除该出行者，不作为错误返回
func (s *Scenario) Validate() error {
	errs := make([]error, 0)
	report := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	if err := validate.Struct(s); err != nil {
		errs = append(errs, fieldErrors(err)...)
	}

	nodes := make(map[int32]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		if _, ok := nodes[n.ID]; ok {
			report("duplicate node id %d", n.ID)
		}
		nodes[n.ID] = struct{}{}
	}
	edges := make(map[int32]struct{}, len(s.Edges))
	for _, e := range s.Edges {
		if _, ok := edges[e.ID]; ok {
			report("duplicate edge id %d", e.ID)
		}
		edges[e.ID] = struct{}{}
		if _, ok := nodes[e.From]; !ok {
			report("edge %d: unknown from node %d", e.ID, e.From)
		}
		if _, ok := nodes[e.To]; !ok {
			report("edge %d: unknown to node %d", e.ID, e.To)
		}
		for _, name := range e.Modalities {
			if _, err := entity.ParseModality(name); err != nil {
				report("edge %d: %w", e.ID, err)
			}
		}
	}

	checkLots := func(kind string, lots []Lot) {
		ids := make(map[int32]struct{}, len(lots))
		for _, l := range lots {
			if _, ok := ids[l.ID]; ok {
				report("duplicate %s parking id %d", kind, l.ID)
			}
			ids[l.ID] = struct{}{}
		}
	}
	checkLots("car", s.Parking.Car)
	checkLots("bicycle", s.Parking.Bicycle)

	checkRentals := func(kind string, stations []RentalStation) {
		ids := make(map[int32]struct{}, len(stations))
		for _, r := range stations {
			if _, ok := ids[r.ID]; ok {
				report("duplicate %s rental station id %d", kind, r.ID)
			}
			ids[r.ID] = struct{}{}
		}
	}
	checkRentals("bicycle", s.Rental.Bicycle)
	checkRentals("car", s.Rental.Car)

	stationModes := make(map[int32]entity.Mode, len(s.Stations))
	for _, st := range s.Stations {
		if _, ok := stationModes[st.ID]; ok {
			report("duplicate station id %d", st.ID)
		}
		mode, err := entity.ParseMode(st.Mode)
		if err != nil || !mode.IsTransit() {
			report("station %d: %q is not a transit mode", st.ID, st.Mode)
			continue
		}
		stationModes[st.ID] = mode
	}
	lines := make(map[int32]struct{}, len(s.Lines))
	vehicles := make(map[int32]struct{})
	for _, l := range s.Lines {
		if _, ok := lines[l.ID]; ok {
			report("duplicate line id %d", l.ID)
		}
		lines[l.ID] = struct{}{}
		mode, err := entity.ParseMode(l.Mode)
		if err != nil || !mode.IsTransit() {
			report("line %d: %q is not a transit mode", l.ID, l.Mode)
			continue
		}
		if len(lo.Uniq(l.Stops)) < 2 {
			report("line %d: needs at least 2 distinct stops", l.ID)
		}
		for _, id := range l.Stops {
			if m, ok := stationModes[id]; !ok || m != mode {
				report("line %d: stop %d is not a %v station", l.ID, id, mode)
			}
		}
		if len(l.Vehicles) > 0 && l.Capacity <= 0 {
			report("line %d: capacity must be positive", l.ID)
		}
		for _, id := range l.Vehicles {
			if _, ok := vehicles[id]; ok {
				report("duplicate transit vehicle id %d", id)
			}
			vehicles[id] = struct{}{}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	persons := make(map[int32]struct{}, len(s.Persons))
	s.Persons = lo.Filter(s.Persons, func(p Person, _ int) bool {
		if _, ok := persons[p.ID]; ok {
			log.Warnf("ignore person %d due to duplicated id", p.ID)
			return false
		}
		if err := p.validate(); err != nil {
			log.Warnf("ignore person %d due to %v", p.ID, err)
			return false
		}
		persons[p.ID] = struct{}{}
		return true
	})
	if len(s.Persons) == 0 {
		log.Error("no valid persons to simulate")
	}
	return nil
}

func (p Person) validate() error {
	if err := validate.Struct(p); err != nil {
		return errors.Join(fieldErrors(err)...)
	}
	for _, name := range p.Capabilities {
		if _, err := entity.ParseMode(name); err != nil {
			return fmt.Errorf("capability: %w", err)
		}
	}
	for i, t := range p.Trips {
		for _, name := range t.Modes {
			if _, err := entity.ParseMode(name); err != nil {
				return fmt.Errorf("trip %d: %w", i, err)
			}
		}
	}
	return nil
}
