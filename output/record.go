package output

import (
	"fmt"
)

// TripRecord 一次出行结束后的统计记录
type TripRecord struct {
	PersonID  int32      `json:"person_id" bson:"person_id"`
	TripIndex int        `json:"trip_index" bson:"trip_index"`
	Start     [2]float64 `json:"start" bson:"start"` // 经度、纬度
	Goal      [2]float64 `json:"goal" bson:"goal"`

	Requested    string   `json:"requested" bson:"requested"` // 请求的出行方式
	Modes        []string `json:"modes" bson:"modes"`         // 各段出行方式
	DominantMode string   `json:"dominant_mode" bson:"dominant_mode"`

	DepartureTime      float64 `json:"departure_time" bson:"departure_time"` // 仿真时间（秒）
	ArrivalTime        float64 `json:"arrival_time" bson:"arrival_time"`
	ExpectedTravelTime float64 `json:"expected_travel_time" bson:"expected_travel_time"`
	ActualTravelTime   float64 `json:"actual_travel_time" bson:"actual_travel_time"`

	TotalLength    float64   `json:"total_length" bson:"total_length"` // 米
	MainModeLength float64   `json:"main_mode_length" bson:"main_mode_length"`
	SwitchGaps     []float64 `json:"switch_gaps,omitempty" bson:"switch_gaps,omitempty"`

	Replans        int    `json:"replans" bson:"replans"`
	ForcedWalk     bool   `json:"forced_walk,omitempty" bson:"forced_walk,omitempty"` // 重规划次数耗尽后步行完成
	FallbackReason string `json:"fallback_reason,omitempty" bson:"fallback_reason,omitempty"`
}

func (r *TripRecord) String() string {
	return fmt.Sprintf("TripRecord{person=%d, trip=%d, modes=%v, actual=%.0fs, expected=%.0fs, length=%.0fm, replans=%d}",
		r.PersonID, r.TripIndex, r.Modes, r.ActualTravelTime, r.ExpectedTravelTime, r.TotalLength, r.Replans)
}
