package person

import (
	"fmt"

	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

// State 出行者的模式切换状态
type State int32

const (
	State_OFFSIDE       State = iota // 无主动导航（出发前、候车、切换中）
	State_ON_ACCESS_WAY              // 步行中
	State_IN_VEHICLE                 // 驾驶、骑行或乘坐公共交通
)

func (s State) String() string {
	switch s {
	case State_OFFSIDE:
		return "offside"
	case State_ON_ACCESS_WAY:
		return "on_access_way"
	case State_IN_VEHICLE:
		return "in_vehicle"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// runtime 出行者运行时数据结构
// 功能：记录出行者在模拟过程中的状态、位置与占用的交通工具
// 说明：该数据结构需要可以被直接复制，作为快照供外部读取
type runtime struct {
	State    State
	Position entity.Position
	V        float64 // 速度（米/秒）

	Route   *entity.Route          // 正在跟随的路径（步行或驾驶）
	Active  entity.VehicleHandle   // 驾驶中的交通工具
	Transit entity.ITransitVehicle // 乘坐中的公共交通车辆
	Waiting bool                   // 在车站候车
}

// tripRuntime 当前出行的统计数据
type tripRuntime struct {
	index     int
	start     entity.Position
	departure float64
	expected  float64

	replans    int  // 本次出行累计重规划次数
	entered    bool // 游标所在段已进入
	completed  bool // 游标所在段已离开，等待进入下一段
	forcedWalk bool
}
