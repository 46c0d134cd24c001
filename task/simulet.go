package task

import (
	"flag"
	"time"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 功能：心跳日志，更新出行者快照
// 说明：准备阶段结束后，快照在整个更新阶段内保持不变
func (ctx *Context) prepare() {
	if *heartBeatInterval > 0 && ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		g := ctx.personManager.Snapshot()
		log.Infof(
			"STEP: %d(%v) active=%d trips=%d replans=%d passengers=%d",
			ctx.clock.InternalStep, ctx.clock,
			ctx.personManager.Active(), g.NumCompletedTrips, g.NumReplans,
			ctx.transitManager.PassengerCount(),
		)
	}
	ctx.personManager.Prepare()
}

// update 更新阶段，每步执行一次
// 说明：公共交通车辆先于出行者更新，出行者在同一步内处理车辆的到站通知
func (ctx *Context) update() {
	ctx.transitManager.Update(ctx.clock.DT)
	ctx.personManager.Update(ctx.clock.DT)
}

// Step 推进一步
func (ctx *Context) Step() {
	start := time.Now()
	ctx.prepare()
	ctx.update()
	if ctx.metrics != nil {
		ctx.metrics.ObserveTick(time.Since(start), ctx.clock.T, ctx.personManager.Active())
	}
}

// Run 运行
// 功能：循环执行准备与更新阶段，直到到达结束步、全部出行结束或收到停止指令
func (ctx *Context) Run() {
	log.Infof("engine start at %v", ctx.clock)
	for {
		ctx.Step()
		if ctx.clock.Finished() || ctx.closed.Load() {
			break
		}
		if ctx.personManager.Active() == 0 {
			log.Infof("all trips finished at step %d(%v)", ctx.clock.InternalStep, ctx.clock)
			break
		}
		ctx.clock.Tick()
	}
	ctx.personManager.Prepare()
	g := ctx.personManager.Snapshot()
	log.Infof("engine complete: trips=%d travel_time=%.0fs travel_distance=%.0fm replans=%d forced_walks=%d",
		g.NumCompletedTrips, g.TravelTime, g.TravelDistance, g.NumReplans, g.NumForcedWalks)
}
