package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 说明：File非空时优先从文件加载
type InputPath struct {
	DB   string `yaml:"db"`             // 数据库名
	Col  string `yaml:"col"`            // 集合名
	Name string `yaml:"name,omitempty"` // 场景名，用于在集合中筛选文档
	File string `yaml:"file,omitempty"` // 文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// Input 模拟器输入数据的配置项
type Input struct {
	URI      string    `yaml:"uri,omitempty"` // MongoDB连接字符串
	Scenario InputPath `yaml:"scenario"`      // 场景（路网、资源、出行者）
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔
}

// Control 模拟器控制配置
type Control struct {
	Step ControlStep `yaml:"step"`
	Seed uint64      `yaml:"seed,omitempty"` // 随机数种子
}

// TransitSpeed 各公共交通方式的估计速度（km/h）
type TransitSpeed struct {
	Bus   float64 `yaml:"bus,omitempty"`
	Train float64 `yaml:"train,omitempty"`
	Ferry float64 `yaml:"ferry,omitempty"`
}

// Routing 路径规划与模式切换配置
// 功能：控制检索重试次数、下车距离容差等运行参数
// 说明：为0的项在NewRuntimeConfig中填充默认值
type Routing struct {
	DisembarkTolerance  float64      `yaml:"disembark_tolerance,omitempty"`   // 到站下车的距离容差（米）
	MaxReplanAttempts   int          `yaml:"max_replan_attempts,omitempty"`   // 资源被占用后的最大重规划次数
	MaxStationAttempts  int          `yaml:"max_station_attempts,omitempty"`  // 车站/租赁站排除重试次数
	ParkingSearchRadius float64      `yaml:"parking_search_radius,omitempty"` // 离开车辆时搜索可用车位/还车点的半径（米）
	FallbackHops        int          `yaml:"fallback_hops,omitempty"`         // 驾驶路径无解时邻近节点放宽检索数量
	WalkingSpeed        float64      `yaml:"walking_speed,omitempty"`         // 默认步行速度（km/h）
	TransitSpeed        TransitSpeed `yaml:"transit_speed,omitempty"`         // 公共交通估计速度（km/h）
}

// MongoOutput MongoDB出行记录输出
type MongoOutput struct {
	URI string `yaml:"uri,omitempty"`
	DB  string `yaml:"db,omitempty"`
	Col string `yaml:"col,omitempty"`
}

// NATSOutput NATS出行记录发布
type NATSOutput struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Output 输出配置
type Output struct {
	Mongo       MongoOutput `yaml:"mongo,omitempty"`
	NATS        NATSOutput  `yaml:"nats,omitempty"`
	MetricsAddr string      `yaml:"metrics_addr,omitempty"` // prometheus监听地址，为空则不启动
}

// Config YAML配置文件的根结构
type Config struct {
	Input   Input   `yaml:"input"`             // 输入
	Control Control `yaml:"control"`           // 模拟过程控制
	Routing Routing `yaml:"routing,omitempty"` // 路径规划
	Output  Output  `yaml:"output,omitempty"`  // 输出
}
