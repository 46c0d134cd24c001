package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// 默认值
const (
	DefaultDisembarkTolerance  = 3.
	DefaultMaxReplanAttempts   = 3
	DefaultMaxStationAttempts  = 3
	DefaultParkingSearchRadius = 50.
	DefaultFallbackHops        = 3
	DefaultWalkingSpeed        = 5.  // km/h
	DefaultBusSpeed            = 30. // km/h
	DefaultTrainSpeed          = 50. // km/h
	DefaultFerrySpeed          = 20. // km/h
)

// RuntimeConfig 运行时配置
// 功能：存储仿真运行时的配置信息，已填充全部默认值
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
	R   Routing // 路径规划配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
// 说明：路径规划未指定的参数使用默认值
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	r := config.Routing
	if r.DisembarkTolerance <= 0 {
		r.DisembarkTolerance = DefaultDisembarkTolerance
	}
	if r.MaxReplanAttempts <= 0 {
		r.MaxReplanAttempts = DefaultMaxReplanAttempts
	}
	if r.MaxStationAttempts <= 0 {
		r.MaxStationAttempts = DefaultMaxStationAttempts
	}
	if r.ParkingSearchRadius <= 0 {
		r.ParkingSearchRadius = DefaultParkingSearchRadius
	}
	if r.FallbackHops <= 0 {
		r.FallbackHops = DefaultFallbackHops
	}
	if r.WalkingSpeed <= 0 {
		r.WalkingSpeed = DefaultWalkingSpeed
	}
	if r.TransitSpeed.Bus <= 0 {
		r.TransitSpeed.Bus = DefaultBusSpeed
	}
	if r.TransitSpeed.Train <= 0 {
		r.TransitSpeed.Train = DefaultTrainSpeed
	}
	if r.TransitSpeed.Ferry <= 0 {
		r.TransitSpeed.Ferry = DefaultFerrySpeed
	}
	config.Routing = r

	rc.All = config
	rc.C = config.Control
	rc.R = r
	return rc
}

// Load 从YAML数据解析配置（严格模式，未知字段报错）
func Load(data []byte) (Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// ApplyEnv 用环境变量覆盖未配置的连接地址
// MONGO_URI、NATS_URL、METRICS_ADDR
func ApplyEnv(c *Config) {
	if v := os.Getenv("MONGO_URI"); v != "" {
		if c.Input.URI == "" {
			c.Input.URI = v
		}
		if c.Output.Mongo.URI == "" && c.Output.Mongo.Col != "" {
			c.Output.Mongo.URI = v
		}
	}
	if v := os.Getenv("NATS_URL"); v != "" && c.Output.NATS.URL == "" {
		c.Output.NATS.URL = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" && c.Output.MetricsAddr == "" {
		c.Output.MetricsAddr = v
	}
}
