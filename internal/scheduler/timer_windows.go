//go:build windows

package scheduler

import "golang.org/x/sys/windows"

// Default Windows timer granularity is ~15.6ms, too coarse for the
// coarse-sleep-then-spin dispatch loop (
// granularity"). winmm's timeBeginPeriod/timeEndPeriod raise and lower
// the global system timer resolution for the process's lifetime of use.
var (
	winmm               = windows.NewLazySystemDLL("winmm.dll")
	procTimeBeginPeriod = winmm.NewProc("timeBeginPeriod")
	procTimeEndPeriod   = winmm.NewProc("timeEndPeriod")
)

const timerResolutionMs = 1

func enableTimerResolution() {
	procTimeBeginPeriod.Call(uintptr(timerResolutionMs))
}

func restoreTimerResolution() {
	procTimeEndPeriod.Call(uintptr(timerResolutionMs))
}
