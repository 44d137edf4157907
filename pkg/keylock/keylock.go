package keylock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout báo lock không acquire được trong khoảng wait cho phép.
// Caller nên map sang conflict error thay vì retry vô hạn.
var ErrTimeout = errors.New("keylock: wait timeout exceeded")

type entry struct {
	sem  chan struct{} // capacity 1, holds the lock token
	refs int
}

// KeyLock serializes operations per key (ở đây key là book id).
// Operations trên keys khác nhau không bao giờ block lẫn nhau.
// Entries được giải phóng khi không còn waiter nào tham chiếu.
type KeyLock struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *KeyLock {
	return &KeyLock{
		entries: make(map[string]*entry),
	}
}

func (kl *KeyLock) get(key string) *entry {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	e, ok := kl.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		kl.entries[key] = e
	}
	e.refs++
	return e
}

func (kl *KeyLock) put(key string, e *entry) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(kl.entries, key)
	}
}

// Acquire blocks until the key's lock is held, the wait timeout expires,
// or ctx is cancelled. On success it returns a release function that MUST
// be called exactly once (defer release()).
func (kl *KeyLock) Acquire(ctx context.Context, key string, wait time.Duration) (release func(), err error) {
	e := kl.get(key)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			kl.put(key, e)
		}, nil
	case <-timer.C:
		kl.put(key, e)
		return nil, ErrTimeout
	case <-ctx.Done():
		kl.put(key, e)
		return nil, ctx.Err()
	}
}

// TryAcquire acquires the lock only if it is immediately free.
func (kl *KeyLock) TryAcquire(key string) (release func(), ok bool) {
	e := kl.get(key)

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			kl.put(key, e)
		}, true
	default:
		kl.put(key, e)
		return nil, false
	}
}

// Len returns the number of live entries, for diagnostics.
func (kl *KeyLock) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.entries)
}
