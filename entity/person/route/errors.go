package route

import (
	"errors"
	"fmt"

	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

// 路径规划失败的分类
var (
	// 出行者不具备该方式或缺少所需的交通工具，不重试，降级为步行
	ErrCapabilityMissing = errors.New("capability missing")
	// 附近没有可达/可用的车站、停车场、租赁站，排除后重试，仍失败则降级
	ErrResourceUnavailable = errors.New("resource unavailable")
	// 空间图缺少该方式所需的边，不重试
	ErrGraphModalityMissing = errors.New("graph modality missing")
	// 车站存在但没有线路组合可以连通，不重试
	ErrNoConnectingRoute = errors.New("no connecting route")
	// 规划时空闲的资源在进入时已被占用，重新规划剩余行程
	ErrTransientOccupancy = errors.New("transient occupancy")
)

// ComposeError 带出行方式与详细信息的规划错误，可用errors.Is判断分类
type ComposeError struct {
	Mode   entity.Mode
	Kind   error
	Detail string
}

func (e *ComposeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %v", e.Mode, e.Kind)
	}
	return fmt.Sprintf("%v: %v: %s", e.Mode, e.Kind, e.Detail)
}

func (e *ComposeError) Unwrap() error {
	return e.Kind
}

func newError(mode entity.Mode, kind error, format string, args ...any) error {
	return &ComposeError{Mode: mode, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Retryable 是否为可以通过排除或重新规划恢复的错误
func Retryable(err error) bool {
	return errors.Is(err, ErrResourceUnavailable) || errors.Is(err, ErrTransientOccupancy)
}

// Kind 错误分类的简称，用于日志与指标标签
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrCapabilityMissing):
		return "capability_missing"
	case errors.Is(err, ErrResourceUnavailable):
		return "resource_unavailable"
	case errors.Is(err, ErrGraphModalityMissing):
		return "graph_modality_missing"
	case errors.Is(err, ErrNoConnectingRoute):
		return "no_connecting_route"
	case errors.Is(err, ErrTransientOccupancy):
		return "transient_occupancy"
	}
	return "unknown"
}
