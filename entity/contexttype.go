package entity

import (
	"github.com/tsinghua-fib-lab/multimodal-sim/clock"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/config"
)

type ITaskContext interface {
	Clock() *clock.Clock
	Graph() ISpatialGraph
	Layers() *Layers
	RuntimeConfig() *config.RuntimeConfig
}
