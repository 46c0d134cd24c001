package container

import (
	"sync"
)

// IIncrementalItem 支持增量维护的元素，记录自身在数组中的下标
type IIncrementalItem interface {
	Index() int
	SetIndex(index int)
}

// IncrementalItemBase 可嵌入的下标记录
type IncrementalItemBase struct {
	index int
}

func (b *IncrementalItemBase) Index() int {
	return b.index
}

func (b *IncrementalItemBase) SetIndex(index int) {
	b.index = index
}

// IncrementalArray 增量数组
// 功能：更新阶段可并发登记增删，准备阶段统一生效
// 说明：删除采用末尾元素填补空位，不保持元素顺序
type IncrementalArray[T IIncrementalItem] struct {
	data    []T
	pending []T
	removed []T
	mtx     sync.Mutex
}

// NewIncrementalArray 创建增量数组
func NewIncrementalArray[T IIncrementalItem]() *IncrementalArray[T] {
	return &IncrementalArray[T]{
		data:    make([]T, 0),
		pending: make([]T, 0),
		removed: make([]T, 0),
	}
}

// Len 已生效元素数量
func (a *IncrementalArray[T]) Len() int {
	return len(a.data)
}

// Data 已生效的元素（只读）
func (a *IncrementalArray[T]) Data() []T {
	return a.data
}

// Add 登记新增，Prepare后生效
func (a *IncrementalArray[T]) Add(value T) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.pending = append(a.pending, value)
}

// Remove 登记删除，Prepare后生效
func (a *IncrementalArray[T]) Remove(value T) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.removed = append(a.removed, value)
}

// Prepare 执行登记的增删
// 算法说明：
// 1. 先删除：用末尾元素填补被删元素的位置并缩短数组
// 2. 再追加新增元素并写入下标
func (a *IncrementalArray[T]) Prepare() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	for _, x := range a.removed {
		ind := x.Index()
		if ind < 0 || ind >= len(a.data) || any(a.data[ind]) != any(x) {
			continue
		}
		last := len(a.data) - 1
		a.data[ind] = a.data[last]
		a.data[ind].SetIndex(ind)
		a.data = a.data[:last]
		x.SetIndex(-1)
	}
	for _, x := range a.pending {
		x.SetIndex(len(a.data))
		a.data = append(a.data, x)
	}
	a.pending = a.pending[:0]
	a.removed = a.removed[:0]
}
