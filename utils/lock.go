package utils

import "sync"

func WrapLock(lock *sync.Mutex, fn func()) {
	lock.Lock()
	defer lock.Unlock()

	fn()
}

// WrapLockErr is WrapLock for critical sections that can fail.
func WrapLockErr(lock *sync.Mutex, fn func() error) error {
	lock.Lock()
	defer lock.Unlock()

	return fn()
}
