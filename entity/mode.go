package entity

import (
	"fmt"
	"strings"
)

// Mode 出行方式，作为行程段(Leg)上不可变的标签
type Mode int32

const (
	Mode_WALKING             Mode = iota // 步行
	Mode_CYCLING_OWN_BIKE                // 骑自有自行车
	Mode_CYCLING_RENTAL_BIKE             // 骑租赁自行车
	Mode_CAR_DRIVING                     // 驾驶自有汽车
	Mode_CAR_RENTAL_DRIVING              // 驾驶租赁汽车
	Mode_CO_DRIVING                      // 搭乘他人驾驶的汽车
	Mode_BUS                             // 公交
	Mode_TRAIN                           // 轨道交通
	Mode_FERRY                           // 渡轮

	ModeCount int = iota
)

var modeNames = [...]string{
	"walking",
	"cycling_own_bike",
	"cycling_rental_bike",
	"car_driving",
	"car_rental_driving",
	"co_driving",
	"bus",
	"train",
	"ferry",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= ModeCount {
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
	return modeNames[m]
}

// ParseMode 从配置或输入中的名字解析出行方式（大小写不敏感）
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return Mode_WALKING, fmt.Errorf("unknown mode %q", s)
}

// MarshalText 以名字形式序列化
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText 从名字反序列化
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// UnmarshalYAML 支持yaml.v2以名字配置出行方式
func (m *Mode) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return m.UnmarshalText([]byte(s))
}

// IsDriving 机动车驾驶类方式（含搭乘）
func (m Mode) IsDriving() bool {
	return m == Mode_CAR_DRIVING || m == Mode_CAR_RENTAL_DRIVING || m == Mode_CO_DRIVING
}

// IsCycling 骑行类方式
func (m Mode) IsCycling() bool {
	return m == Mode_CYCLING_OWN_BIKE || m == Mode_CYCLING_RENTAL_BIKE
}

// IsTransit 线路型公共交通方式
func (m Mode) IsTransit() bool {
	return m == Mode_BUS || m == Mode_TRAIN || m == Mode_FERRY
}

// Modality 空间图中边所支持的通行方式
type Modality int32

const (
	Modality_WALKING Modality = iota
	Modality_CYCLING
	Modality_CAR_DRIVING
	Modality_TRAIN_DRIVING
	Modality_SHIP_DRIVING
)

func (m Modality) String() string {
	switch m {
	case Modality_WALKING:
		return "walking"
	case Modality_CYCLING:
		return "cycling"
	case Modality_CAR_DRIVING:
		return "car_driving"
	case Modality_TRAIN_DRIVING:
		return "train_driving"
	case Modality_SHIP_DRIVING:
		return "ship_driving"
	default:
		return fmt.Sprintf("Modality(%d)", int32(m))
	}
}

// ParseModality 解析通行方式名字
func ParseModality(s string) (Modality, error) {
	for m := Modality_WALKING; m <= Modality_SHIP_DRIVING; m++ {
		if m.String() == strings.ToLower(strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return Modality_WALKING, fmt.Errorf("unknown modality %q", s)
}

// TransitModality 公共交通方式行驶的图通行方式
// 公交与汽车共用道路
func TransitModality(m Mode) (Modality, bool) {
	switch m {
	case Mode_BUS:
		return Modality_CAR_DRIVING, true
	case Mode_TRAIN:
		return Modality_TRAIN_DRIVING, true
	case Mode_FERRY:
		return Modality_SHIP_DRIVING, true
	}
	return Modality_WALKING, false
}

// Capabilities 出行者能力集，以Mode为下标的布尔向量
// 初始化后只读，步行总是可用
type Capabilities [ModeCount]bool

// NewCapabilities 由给定方式构造能力集（自动包含步行）
func NewCapabilities(modes ...Mode) Capabilities {
	var c Capabilities
	c[Mode_WALKING] = true
	for _, m := range modes {
		if m >= 0 && int(m) < ModeCount {
			c[m] = true
		}
	}
	return c
}

// Has 是否具备某出行方式
func (c Capabilities) Has(m Mode) bool {
	if m < 0 || int(m) >= ModeCount {
		return false
	}
	return m == Mode_WALKING || c[m]
}

// Modes 以枚举顺序列出所有可用方式
func (c Capabilities) Modes() []Mode {
	modes := make([]Mode, 0, ModeCount)
	for i := 0; i < ModeCount; i++ {
		if c.Has(Mode(i)) {
			modes = append(modes, Mode(i))
		}
	}
	return modes
}

// VehicleKind 出行者使用的交通工具类别
type VehicleKind int32

const (
	VehicleKind_NONE           VehicleKind = iota // 未使用交通工具
	VehicleKind_OWN_BICYCLE                       // 自有自行车
	VehicleKind_OWN_CAR                           // 自有汽车
	VehicleKind_RENTAL_BICYCLE                    // 租赁自行车
	VehicleKind_RENTAL_CAR                        // 租赁汽车
	VehicleKind_TRANSIT                           // 公共交通车辆（作为乘客）
)

func (k VehicleKind) String() string {
	switch k {
	case VehicleKind_NONE:
		return "none"
	case VehicleKind_OWN_BICYCLE:
		return "own_bicycle"
	case VehicleKind_OWN_CAR:
		return "own_car"
	case VehicleKind_RENTAL_BICYCLE:
		return "rental_bicycle"
	case VehicleKind_RENTAL_CAR:
		return "rental_car"
	case VehicleKind_TRANSIT:
		return "transit"
	default:
		return fmt.Sprintf("VehicleKind(%d)", int32(k))
	}
}

// VehicleHandle 交通工具句柄：类别标签+实例
// 通过Kind判断类别，无需对Vehicle做类型断言
type VehicleHandle struct {
	Kind    VehicleKind
	Vehicle IVehicle
}

// NoVehicle 空句柄
var NoVehicle = VehicleHandle{Kind: VehicleKind_NONE}

// IsNone 是否为空句柄
func (h VehicleHandle) IsNone() bool {
	return h.Kind == VehicleKind_NONE || h.Vehicle == nil
}

// ModeOfKind 交通工具类别对应的出行方式
func ModeOfKind(k VehicleKind) (Mode, bool) {
	switch k {
	case VehicleKind_OWN_BICYCLE:
		return Mode_CYCLING_OWN_BIKE, true
	case VehicleKind_OWN_CAR:
		return Mode_CAR_DRIVING, true
	case VehicleKind_RENTAL_BICYCLE:
		return Mode_CYCLING_RENTAL_BIKE, true
	case VehicleKind_RENTAL_CAR:
		return Mode_CAR_RENTAL_DRIVING, true
	}
	return Mode_WALKING, false
}
