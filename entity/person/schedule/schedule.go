package schedule

import (
	"math"

	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

var log = logrus.WithField("module", "schedule")

// Trip 一次出行
// 说明：DepartureTime与WaitTime均为nil时上一次出行结束后立即出发
type Trip struct {
	Goal          entity.Position
	Modes         []entity.Mode // 候选出行方式，按偏好顺序
	DepartureTime *float64      // 出发时间（秒）
	WaitTime      *float64      // 上一次出行结束后的等待时间（秒）
}

// Schedule 时刻表
// 功能：管理出行者的有序出行计划，按出发时间或等待时间触发
type Schedule struct {
	base            []Trip
	TripIndex       int     // 当前trip下标
	lastTripEndTime float64 // 上次trip结束时间
}

// NewSchedule 创建时刻表并设置初始出行计划
func NewSchedule(trips []Trip, time float64) *Schedule {
	s := &Schedule{}
	s.Set(trips, time)
	return s
}

// Base 当前使用的出行计划
func (s *Schedule) Base() []Trip {
	return s.base
}

// Set 设置出行计划
// 功能：替换全部出行计划，重置下标
// 说明：没有候选方式的出行按步行处理
func (s *Schedule) Set(trips []Trip, time float64) {
	s.base = make([]Trip, 0, len(trips))
	for i, trip := range trips {
		if len(trip.Modes) == 0 {
			log.Debugf("trip %d has no mode, use walking", i)
			trip.Modes = []entity.Mode{entity.Mode_WALKING}
		}
		s.base = append(s.base, trip)
	}
	s.TripIndex = 0
	s.lastTripEndTime = time
}

// Empty 是否已无剩余出行
func (s *Schedule) Empty() bool {
	return s.TripIndex >= len(s.base)
}

// GetTrip 获取当前trip，无则返回nil
func (s *Schedule) GetTrip() *Trip {
	if s.Empty() {
		return nil
	}
	return &s.base[s.TripIndex]
}

// NextTrip 进入下一个trip，返回是否还有trip
// 参数：time-当前trip结束时间
func (s *Schedule) NextTrip(time float64) bool {
	if s.Empty() {
		return false
	}
	s.lastTripEndTime = time
	s.TripIndex++
	return !s.Empty()
}

// GetDepartureTime 当前trip的出发时间，没有trip时返回+Inf
// 说明：优先使用出发时间，其次使用上次结束时间加等待时间
func (s *Schedule) GetDepartureTime() float64 {
	trip := s.GetTrip()
	if trip == nil {
		return math.Inf(1)
	}
	if trip.DepartureTime != nil {
		return *trip.DepartureTime
	}
	if trip.WaitTime != nil {
		return s.lastTripEndTime + *trip.WaitTime
	}
	return s.lastTripEndTime
}
