package container

import "container/heap"

// entry 堆中元素
type entry[T any] struct {
	value    T
	priority float64
	seq      uint64 // 插入序号，优先级相同时先入先出
}

type entryHeap[T any] []entry[T]

func (h entryHeap[T]) Len() int { return len(h) }
func (h entryHeap[T]) Less(i, j int) bool {
	if h[i].priority == h[j].priority {
		return h[i].seq < h[j].seq
	}
	return h[i].priority < h[j].priority
}
func (h entryHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap[T]) Push(x any)   { *h = append(*h, x.(entry[T])) }
func (h *entryHeap[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	var zero entry[T]
	old[n-1] = zero
	*h = old[:n-1]
	return e
}

// PriorityQueue 最小优先队列
// 功能：按优先级数值从小到大弹出元素，优先级相同时按插入顺序弹出
// 说明：用于图搜索的开放集，不支持修改已入队元素的优先级（重复入队+出队时跳过）
type PriorityQueue[T any] struct {
	h   entryHeap[T]
	seq uint64
}

// NewPriorityQueue 创建优先队列
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{h: make(entryHeap[T], 0)}
}

// Len 当前元素数量
func (q *PriorityQueue[T]) Len() int {
	return len(q.h)
}

// First 查看优先级最高（数值最小）的元素，不弹出
func (q *PriorityQueue[T]) First() (T, float64) {
	return q.h[0].value, q.h[0].priority
}

// HeapPush 加入元素
func (q *PriorityQueue[T]) HeapPush(value T, priority float64) {
	heap.Push(&q.h, entry[T]{value: value, priority: priority, seq: q.seq})
	q.seq++
}

// HeapPop 弹出优先级最高的元素
func (q *PriorityQueue[T]) HeapPop() (value T, priority float64) {
	e := heap.Pop(&q.h).(entry[T])
	return e.value, e.priority
}
