//go:build !windows

package scheduler

// Non-Windows platforms (Linux, macOS) default to sub-millisecond sleep
// granularity already, so no timer-resolution mode is needed.
func enableTimerResolution()  {}
func restoreTimerResolution() {}
