package entity

// Manager依赖倒置

// entity/person/manager.go的依赖倒置
type IPersonManager interface {
	// 输入Person ID，查找出行者，如果不存在则panic
	Get(id int32) ITraveler
	// 输入Person ID，查找出行者，如果不存在则返回error
	GetOrError(id int32) (ITraveler, error)

	Prepare()          // 准备阶段
	Update(dt float64) // 更新阶段
}

// entity/vehicle/manager.go的依赖倒置
type ITransitManager interface {
	// 输入车辆ID，查找公共交通车辆，如果不存在则返回error
	GetOrError(id int32) (ITransitVehicle, error)

	Update(dt float64) // 更新阶段
}
