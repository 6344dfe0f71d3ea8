//go:build linux

// Package thread reports the OS thread a goroutine is currently running on.
package thread

import "golang.org/x/sys/unix"

// ID returns the kernel thread id of the calling thread.
// Goroutines migrate between threads, so the value identifies where a call
// happened, not who owns the goroutine.
func ID() int64 {
	return int64(unix.Gettid())
}
