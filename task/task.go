package task

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/tsinghua-fib-lab/multimodal-sim/clock"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/graph"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/route"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/multimodal-sim/metrics"
	"github.com/tsinghua-fib-lab/multimodal-sim/output"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/config"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/input"
)

var _ entity.ITaskContext = (*Context)(nil)

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态
// 说明：管理时钟、路网、资源图层、公共交通车队、出行者与输出
type Context struct {
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock
	// 运行时配置
	runtimeConfig *config.RuntimeConfig

	// 空间图
	graph *graph.Graph
	// 资源图层
	layers *entity.Layers

	// 公共交通车队
	transitManager *vehicle.Manager
	// Person管理器
	personManager *person.Manager
	// 路径规划
	router *route.Router

	// 出行记录输出
	sink output.Sink
	// 指标采集，可为nil
	metrics *metrics.Collector
}

// NewContext 创建新的仿真任务上下文
// 参数：
//   - c: 配置对象
//   - s: 场景数据（须已通过Validate）
//   - sink: 出行记录输出，nil时输出到日志
//   - collector: 指标采集器，可为nil
//
// 返回：初始化完成的Context实例
// 算法说明：
// 1. 初始化时钟与运行时配置（填充默认值）
// 2. 由场景构建路网、资源图层、公共交通车队与出行者初始化数据
// 3. 创建路径规划器与Person管理器并初始化全部出行者
func NewContext(c config.Config, s *input.Scenario, sink output.Sink, collector *metrics.Collector) (*Context, error) {
	if sink == nil {
		sink = output.LogSink{}
	}
	ctx := &Context{
		clock:         clock.New(c.Control.Step),
		runtimeConfig: config.NewRuntimeConfig(c),
		sink:          sink,
		metrics:       collector,
	}
	if ctx.clock.DT <= 0 {
		return nil, errors.New("control.step.interval must be positive")
	}
	w, err := buildWorld(s, ctx.runtimeConfig)
	if err != nil {
		return nil, fmt.Errorf("build scenario %q: %w", s.Name, err)
	}
	ctx.graph = w.graph
	ctx.layers = w.layers
	ctx.transitManager = w.transit

	var (
		routeObserver  route.IObserver
		personObserver person.IObserver
	)
	if collector != nil {
		routeObserver, personObserver = collector, collector
	}
	ctx.router = route.NewRouter(ctx.graph, ctx.layers, route.OptionsFromConfig(ctx.runtimeConfig.R), routeObserver)
	ctx.personManager = person.NewManager(ctx, ctx.router, ctx.sink, personObserver)
	ctx.personManager.Init(w.specs)
	return ctx, nil
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) Graph() entity.ISpatialGraph {
	return ctx.graph
}

func (ctx *Context) Layers() *entity.Layers {
	return ctx.layers
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) PersonManager() *person.Manager {
	return ctx.personManager
}

func (ctx *Context) TransitManager() *vehicle.Manager {
	return ctx.transitManager
}

// Stop 请求在当前步结束后停止运行，可从其他协程调用
func (ctx *Context) Stop() {
	ctx.closed.Store(true)
}

// Close 关闭输出
func (ctx *Context) Close() error {
	ctx.closed.Store(true)
	if err := ctx.sink.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}
