package service

import (
	"fmt"
	"sync"
)

// keyedMutex 按 key 串行化写操作，key 无人持有时回收
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

// Lock 获取 key 对应的锁，返回解锁函数
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// periodLocks 单实例内对同一 (user, month, year) 的规则写入串行化
var periodLocks = newKeyedMutex()

func periodKey(userID uint, month, year int) string {
	return fmt.Sprintf("%d:%04d-%02d", userID, year, month)
}
