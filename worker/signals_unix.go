//go:build unix

package worker

import (
	"os"
	"syscall"
)

// QUIT finishes the current job then exits, TERM and INT exit now, USR1
// kills the current job, USR2 pauses and CONT resumes.
var signalActions = map[os.Signal]func(*Worker){
	syscall.SIGQUIT: (*Worker).Shutdown,
	syscall.SIGTERM: (*Worker).ShutdownNow,
	syscall.SIGINT:  (*Worker).ShutdownNow,
	syscall.SIGUSR1: (*Worker).KillChild,
	syscall.SIGUSR2: (*Worker).PauseProcessing,
	syscall.SIGCONT: (*Worker).UnPauseProcessing,
}
