package person

// updatePedestrian 步行前进
// 功能：按偏好步行速度沿当前段路径前进，更新位置与所在图节点
// 参数：dt-时间步长
func (p *Person) updatePedestrian(dt float64) {
	r := p.runtime.Route
	ds := r.Move(p.walkingSpeed * dt)
	p.runtime.Position = r.CurrentPosition()
	p.runtime.V = ds / dt
	p.place(p)
	p.m.recordRunning(dt, ds)
}

// place 将出行者或其驾驶的交通工具放置到路径当前所在的图节点
// 说明：连接虚拟边的端点不属于空间图，此时保持原节点
func (p *Person) place(e any) {
	r := p.runtime.Route
	if r.GoalReached() {
		p.ctx.Graph().Insert(e, r.GoalNode())
	} else {
		p.ctx.Graph().Insert(e, r.CurrentEdge().From())
	}
}
