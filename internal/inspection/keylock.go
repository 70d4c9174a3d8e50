package inspection

import "sync"

// keyedMutex 按 key（车辆 ID）串行化的互斥锁集合。
// 同一辆车的检查单创建从结转解析到落库全程持锁，
// 不同车辆完全并行，没有全局锁。
type keyedMutex struct {
	locks sync.Map // key -> *sync.Mutex
}

// Lock 锁住 key，返回解锁函数。
func (k *keyedMutex) Lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
