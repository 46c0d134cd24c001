package person

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/route"
	"github.com/tsinghua-fib-lab/multimodal-sim/output"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/container"
)

// IObserver 模式切换与出行结果的观察者（指标采集）
type IObserver interface {
	ObserveTransition(mode entity.Mode, ok bool)
	ObserveReplan(mode entity.Mode, cause error)
	ObserveTripEnd(r *output.TripRecord)
}

// GlobalRuntime 全局运行时数据结构
// 功能：管理全局运行时数据，包括完成行程数、总行驶时间、总行驶距离
type GlobalRuntime struct {
	NumCompletedTrips int32   // 已完成的行程
	TravelTime        float64 // 总行驶时间
	TravelDistance    float64 // 总行驶距离
	NumReplans        int32   // 重规划次数
	NumForcedWalks    int32   // 放弃重规划改为步行的行程数
}

// Manager 出行者管理器
// 功能：管理所有出行者，提供创建、查找、并行更新与出行记录输出
type Manager struct {
	ctx      entity.ITaskContext
	router   *route.Router
	sink     output.Sink
	observer IObserver

	data map[int32]*Person

	// 有计算、输出需求的person
	persons *container.IncrementalArray[*Person]

	snapshot, runtime GlobalRuntime
	runtimeMtx        sync.Mutex
}

// NewManager 创建出行者管理器实例
// 参数：ctx-任务上下文，router-路径规划器，sink-出行记录输出（可为nil），observer-观察者（可为nil）
func NewManager(ctx entity.ITaskContext, router *route.Router, sink output.Sink, observer IObserver) *Manager {
	return &Manager{
		ctx:      ctx,
		router:   router,
		sink:     sink,
		observer: observer,
		data:     make(map[int32]*Person),
		persons:  container.NewIncrementalArray[*Person](),
	}
}

// Init 初始化所有出行者
// 功能：根据初始化数据并行创建出行者，建立ID映射关系
// 说明：ID重复时panic
func (m *Manager) Init(specs []Spec) {
	m.persons = container.NewIncrementalArray[*Person]()
	persons := parallel.GoMap(specs, func(spec Spec) *Person {
		return newPerson(m.ctx, m, spec)
	})
	m.data = make(map[int32]*Person, len(persons))
	for _, p := range persons {
		if _, ok := m.data[p.id]; ok {
			log.Panicf("duplicate person id %d", p.id)
		}
		m.data[p.id] = p
		m.persons.Add(p)
	}
	m.persons.Prepare()
	log.Infof("init %d persons", len(persons))
}

// Get 根据ID获取出行者，如果不存在则panic
func (m *Manager) Get(id int32) entity.ITraveler {
	if p, ok := m.data[id]; !ok {
		log.Panicf("no id %d in person data", id)
		return nil
	} else {
		return p
	}
}

// GetOrError 根据ID获取出行者，如果不存在则返回错误
func (m *Manager) GetOrError(id int32) (entity.ITraveler, error) {
	if p, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in person data", id)
	} else {
		return p, nil
	}
}

// Person 根据ID获取出行者实体，不存在时返回nil
func (m *Manager) Person(id int32) *Person {
	return m.data[id]
}

// Persons 全部出行者，按ID排序
func (m *Manager) Persons() []*Person {
	persons := lo.Values(m.data)
	slices.SortFunc(persons, func(a, b *Person) int { return cmp.Compare(a.id, b.id) })
	return persons
}

// Active 未完成全部出行的出行者数量
func (m *Manager) Active() int {
	return lo.CountBy(m.persons.Data(), func(p *Person) bool {
		return p.itinerary != nil || !p.schedule.Empty()
	})
}

// 准备阶段：snapshot更新
func (m *Manager) Prepare() {
	m.persons.Prepare()
	parallel.GoFor(m.persons.Data(), func(p *Person) {
		p.prepare()
	})
	m.runtimeMtx.Lock()
	m.snapshot = m.runtime
	m.runtimeMtx.Unlock()
	log.Debug("Manager: prepare done")
}

// 更新阶段
// 说明：单个出行者的错误只记录日志，不影响其他出行者
func (m *Manager) Update(dt float64) {
	parallel.GoFor(m.persons.Data(), func(p *Person) {
		if err := p.Step(dt); err != nil {
			log.Warnf("person %d: %v", p.id, err)
		}
	})
}

// Snapshot 上一准备阶段的全局运行时数据
func (m *Manager) Snapshot() GlobalRuntime {
	m.runtimeMtx.Lock()
	defer m.runtimeMtx.Unlock()
	return m.snapshot
}

// recordRunning 记录在路上的人车
func (m *Manager) recordRunning(dt float64, ds float64) {
	m.runtimeMtx.Lock()
	defer m.runtimeMtx.Unlock()
	m.runtime.TravelTime += dt
	m.runtime.TravelDistance += ds
}

// recordTripEnd 记录行程结束并输出出行记录
func (m *Manager) recordTripEnd(r *output.TripRecord) {
	m.runtimeMtx.Lock()
	m.runtime.NumCompletedTrips++
	if r.ForcedWalk {
		m.runtime.NumForcedWalks++
	}
	m.runtimeMtx.Unlock()
	if m.observer != nil {
		m.observer.ObserveTripEnd(r)
	}
	if m.sink != nil {
		if err := m.sink.Write(r); err != nil {
			log.Errorf("write trip record of person %d: %v", r.PersonID, err)
		}
	}
}

func (m *Manager) observeReplan(mode entity.Mode, cause error) {
	m.runtimeMtx.Lock()
	m.runtime.NumReplans++
	m.runtimeMtx.Unlock()
	if m.observer != nil {
		m.observer.ObserveReplan(mode, cause)
	}
}

func (m *Manager) observeTransition(mode entity.Mode, ok bool) {
	if m.observer != nil {
		m.observer.ObserveTransition(mode, ok)
	}
}
