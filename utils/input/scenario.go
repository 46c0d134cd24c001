package input

// Point 经纬度坐标[经度, 纬度]
type Point = [2]float64

// Node 路网节点
type Node struct {
	ID       int32 `yaml:"id" bson:"id"`
	Position Point `yaml:"position" bson:"position"`
}

// Edge 路网有向边
// 说明：Bidirectional为true时同时生成ID为-ID的反向边；Length为0时按两端点的大圆距离计算
type Edge struct {
	ID            int32    `yaml:"id" bson:"id" validate:"gt=0"`
	From          int32    `yaml:"from" bson:"from"`
	To            int32    `yaml:"to" bson:"to"`
	Length        float64  `yaml:"length,omitempty" bson:"length,omitempty" validate:"gte=0"`       // 米
	MaxSpeed      float64  `yaml:"max_speed,omitempty" bson:"max_speed,omitempty" validate:"gte=0"` // 米/秒，0为不限速
	Modalities    []string `yaml:"modalities" bson:"modalities" validate:"min=1"`
	Bidirectional bool     `yaml:"bidirectional,omitempty" bson:"bidirectional,omitempty"`
}

// Lot 停车场
type Lot struct {
	ID       int32 `yaml:"id" bson:"id"`
	Position Point `yaml:"position" bson:"position"`
	Capacity int   `yaml:"capacity" bson:"capacity" validate:"gt=0"`
}

// Parking 停车资源
type Parking struct {
	Car       []Lot   `yaml:"car,omitempty" bson:"car,omitempty" validate:"dive"`
	Bicycle   []Lot   `yaml:"bicycle,omitempty" bson:"bicycle,omitempty" validate:"dive"`
	Occupancy float64 `yaml:"occupancy,omitempty" bson:"occupancy,omitempty" validate:"gte=0,lte=1"` // 汽车停车场背景占用比例[0,1]
}

// RentalStation 租赁站
type RentalStation struct {
	ID       int32 `yaml:"id" bson:"id"`
	Position Point `yaml:"position" bson:"position"`
	Capacity int   `yaml:"capacity" bson:"capacity" validate:"gt=0"`
	Count    int   `yaml:"count" bson:"count" validate:"gte=0,ltefield=Capacity"` // 初始投放车辆数
}

// Rental 租赁资源
type Rental struct {
	Bicycle []RentalStation `yaml:"bicycle,omitempty" bson:"bicycle,omitempty" validate:"dive"`
	Car     []RentalStation `yaml:"car,omitempty" bson:"car,omitempty" validate:"dive"`
}

// Station 公共交通车站
type Station struct {
	ID       int32  `yaml:"id" bson:"id"`
	Mode     string `yaml:"mode" bson:"mode"` // bus、train、ferry
	Name     string `yaml:"name,omitempty" bson:"name,omitempty"`
	Position Point  `yaml:"position" bson:"position"`
}

// Line 公共交通线路
// 说明：Vehicles中的每辆车都从首站出发，在首末站之间往返
type Line struct {
	ID       int32   `yaml:"id" bson:"id"`
	Mode     string  `yaml:"mode" bson:"mode"`
	Stops    []int32 `yaml:"stops" bson:"stops"` // 车站ID，单向
	Vehicles []int32 `yaml:"vehicles" bson:"vehicles"`
	Capacity int     `yaml:"capacity" bson:"capacity"`
	Speed    float64 `yaml:"speed,omitempty" bson:"speed,omitempty" validate:"gte=0"` // 米/秒，0时使用routing.transit_speed
	Dwell    float64 `yaml:"dwell,omitempty" bson:"dwell,omitempty" validate:"gte=0"` // 停站时间（秒）
}

// OwnVehicle 出行者的自有交通工具
// 说明：Position为空时停放在家附近的空闲停车场
type OwnVehicle struct {
	ID       int32   `yaml:"id" bson:"id"`
	Position *Point  `yaml:"position,omitempty" bson:"position,omitempty"`
	MaxSpeed float64 `yaml:"max_speed,omitempty" bson:"max_speed,omitempty" validate:"gte=0"`
}

// Trip 一次出行
type Trip struct {
	Goal          Point    `yaml:"goal" bson:"goal"`
	Modes         []string `yaml:"modes,omitempty" bson:"modes,omitempty"`
	DepartureTime *float64 `yaml:"departure_time,omitempty" bson:"departure_time,omitempty"`
	WaitTime      *float64 `yaml:"wait_time,omitempty" bson:"wait_time,omitempty" validate:"omitempty,gte=0"`
}

// Person 出行者
type Person struct {
	ID           int32       `yaml:"id" bson:"id"`
	Home         Point       `yaml:"home" bson:"home"`
	Capabilities []string    `yaml:"capabilities,omitempty" bson:"capabilities,omitempty"`
	WalkingSpeed float64     `yaml:"walking_speed,omitempty" bson:"walking_speed,omitempty" validate:"gte=0"` // 米/秒
	OwnCar       *OwnVehicle `yaml:"own_car,omitempty" bson:"own_car,omitempty" validate:"omitempty"`
	OwnBicycle   *OwnVehicle `yaml:"own_bicycle,omitempty" bson:"own_bicycle,omitempty" validate:"omitempty"`
	Trips        []Trip      `yaml:"trips" bson:"trips" validate:"dive"`
}

// Scenario 一次仿真的全部输入：路网、资源、公共交通与出行者
type Scenario struct {
	Name     string    `yaml:"name,omitempty" bson:"name,omitempty"`
	Nodes    []Node    `yaml:"nodes" bson:"nodes"`
	Edges    []Edge    `yaml:"edges" bson:"edges" validate:"dive"`
	Parking  Parking   `yaml:"parking,omitempty" bson:"parking,omitempty"`
	Rental   Rental    `yaml:"rental,omitempty" bson:"rental,omitempty"`
	Stations []Station `yaml:"stations,omitempty" bson:"stations,omitempty"`
	Lines    []Line    `yaml:"lines,omitempty" bson:"lines,omitempty"`
	Persons  []Person  `yaml:"persons" bson:"persons" validate:"-"`
}
