//go:build linux

package genie

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// listenerPriority is the SCHED_RR priority requested for the listener thread
const listenerPriority = 20

// raisePriority pins the calling goroutine to its OS thread and asks for round
// robin realtime scheduling, falling back to a lower nice value without CAP_SYS_NICE.
func raisePriority() error {
	runtime.LockOSThread()
	attr := &unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_RR,
		Priority: listenerPriority,
	}
	if err := unix.SchedSetAttr(0, attr, 0); err == nil {
		return nil
	}
	return unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), -10)
}
