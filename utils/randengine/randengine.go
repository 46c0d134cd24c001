// 随机数引擎，包装了golang.org/x/exp/rand，提供仿真中常用的随机数生成方法
package randengine

import (
	"flag"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 说明：不带Safe后缀的方法非线程安全，只应在单个协程内使用
type Engine struct {
	*rand.Rand
	mtx sync.Mutex
}

// New 创建随机数引擎
// 参数：seed-随机数种子（叠加命令行种子偏移量）
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// PTrue 以概率p返回true（非线程安全）
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// PTrueSafe 以概率p返回true（线程安全）
func (e *Engine) PTrueSafe(p float64) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64() < p
}

// IntnSafe 随机生成[0, n)的整数（线程安全）
func (e *Engine) IntnSafe(n int) int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Intn(n)
}

// Noise 以mean为中心、相对标准差ratio的正态扰动，结果截断到[mean*(1-2ratio), mean*(1+2ratio)]（线程安全）
// 用于个体化步行速度等参数
func (e *Engine) Noise(mean, ratio float64) float64 {
	e.mtx.Lock()
	v := mean * (1 + ratio*e.NormFloat64())
	e.mtx.Unlock()
	return lo.Clamp(v, mean*(1-2*ratio), mean*(1+2*ratio))
}

// Sample 从n个元素中不放回地随机抽取k个下标（非线程安全）
func (e *Engine) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	perm := e.Perm(n)
	return perm[:k]
}
