package randengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/randengine"
)

func TestDeterministic(t *testing.T) {
	a, b := randengine.New(42), randengine.New(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.IntnSafe(1000), b.IntnSafe(1000))
	}
}

func TestNoiseBounds(t *testing.T) {
	e := randengine.New(1)
	for i := 0; i < 1000; i++ {
		v := e.Noise(1.34, 0.1)
		assert.GreaterOrEqual(t, v, 1.34*0.8)
		assert.LessOrEqual(t, v, 1.34*1.2)
	}
}

func TestSample(t *testing.T) {
	e := randengine.New(3)
	s := e.Sample(10, 4)
	assert.Len(t, s, 4)
	seen := map[int]bool{}
	for _, i := range s {
		assert.False(t, seen[i])
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, 10)
		seen[i] = true
	}
	assert.Len(t, e.Sample(3, 5), 3)
	assert.False(t, e.PTrue(0))
	assert.True(t, e.PTrueSafe(1))
}
