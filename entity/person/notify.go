package person

import (
	"sync"

	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
)

// mailbox 车辆通知的缓冲区
// 说明：车辆在自身更新阶段投递，出行者在下一次Step开始时统一处理
type mailbox struct {
	mtx      sync.Mutex
	messages []entity.Message
}

func (b *mailbox) push(msg entity.Message) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.messages = append(b.messages, msg)
}

func (b *mailbox) drain() []entity.Message {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	msgs := b.messages
	b.messages = nil
	return msgs
}

// Notify 接收公共交通车辆的通知，实现entity.IPassenger
func (p *Person) Notify(msg entity.Message) {
	p.mailbox.push(msg)
}

// handleMessages 处理缓冲的车辆通知
// 功能：到站时在容差范围内下车，终点站强制下车，无驾驶员通知忽略
// 说明：不在乘车状态时收到的通知直接丢弃
func (p *Person) handleMessages() error {
	for _, msg := range p.mailbox.drain() {
		if p.runtime.Transit == nil {
			log.Debugf("person %d: drop %v when not riding", p.id, msg)
			continue
		}
		p.runtime.Position = p.runtime.Transit.Position()
		switch msg {
		case entity.Message_GOAL_REACHED:
			leg := p.itinerary.CurrentLeg()
			if entity.Distance(p.runtime.Position, legGoal(leg)) > p.ctx.RuntimeConfig().R.DisembarkTolerance {
				continue
			}
			if err := p.completeLeg(); err != nil {
				return err
			}
		case entity.Message_TERMINAL_STATION:
			leg := p.itinerary.CurrentLeg()
			if entity.Distance(p.runtime.Position, legGoal(leg)) <= p.ctx.RuntimeConfig().R.DisembarkTolerance {
				if err := p.completeLeg(); err != nil {
					return err
				}
				continue
			}
			log.Infof("person %d: forced off %v at terminal %v", p.id, leg.Mode, p.runtime.Position)
			if err := p.leave(leg); err != nil {
				return err
			}
			p.trip.completed = true
			if err := p.replan(leg.Mode, errTerminal); err != nil {
				return err
			}
		case entity.Message_NO_DRIVER:
			log.Debugf("person %d: vehicle %d has no driver", p.id, p.runtime.Transit.ID())
		}
	}
	return nil
}
