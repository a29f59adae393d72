//go:build linux

package tasks

import "golang.org/x/sys/unix"

// pinToCore restricts the calling thread to the given CPU. The caller must
// have locked the goroutine to its OS thread first.
func pinToCore(core int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	return unix.SchedSetaffinity(0, &set)
}
