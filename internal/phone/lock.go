// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package phone

import (
	"context"
	"sync"
)

// Locker serializes code issuance per phone.
//
// Lock blocks until the key is free or context is done. The returned release
// function is safe to call more than once.
type Locker interface {
	Lock(context context.Context, key string) (release func(), err error)
}

// LocalLocker is an in-process keyed mutex. It is only correct for a single
// API instance; multi-instance deployments use [RedisLocker].
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

// NewLocalLocker creates an empty keyed mutex.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]chan struct{})}
}

func (locker *LocalLocker) Lock(context context.Context, key string) (func(), error) {
	for {
		locker.mu.Lock()
		waiting, busy := locker.held[key]
		if !busy {
			done := make(chan struct{})
			locker.held[key] = done
			locker.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					locker.mu.Lock()
					delete(locker.held, key)
					locker.mu.Unlock()
					close(done)
				})
			}, nil
		}
		locker.mu.Unlock()

		select {
		case <-waiting:
		case <-context.Done():
			return nil, context.Err()
		}
	}
}
