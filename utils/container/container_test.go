package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/container"
)

func TestPriorityQueueOrder(t *testing.T) {
	q := container.NewPriorityQueue[string]()
	q.HeapPush("c", 3)
	q.HeapPush("a", 1)
	q.HeapPush("b1", 2)
	q.HeapPush("b2", 2)
	assert.Equal(t, 4, q.Len())
	v, p := q.First()
	assert.Equal(t, "a", v)
	assert.Equal(t, 1., p)

	got := make([]string, 0)
	for q.Len() > 0 {
		v, _ := q.HeapPop()
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, got)
}

type item struct {
	container.IncrementalItemBase
	name string
}

func TestIncrementalArray(t *testing.T) {
	a := container.NewIncrementalArray[*item]()
	x, y, z := &item{name: "x"}, &item{name: "y"}, &item{name: "z"}
	a.Add(x)
	a.Add(y)
	a.Add(z)
	assert.Equal(t, 0, a.Len())
	a.Prepare()
	assert.Equal(t, 3, a.Len())
	for i, v := range a.Data() {
		assert.Equal(t, i, v.Index())
	}

	a.Remove(x)
	a.Remove(x)
	a.Prepare()
	assert.Equal(t, 2, a.Len())
	assert.ElementsMatch(t, []*item{y, z}, a.Data())
	for i, v := range a.Data() {
		assert.Equal(t, i, v.Index())
	}
	assert.Equal(t, -1, x.Index())
}
