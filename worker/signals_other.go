//go:build !unix

package worker

import "os"

var signalActions = map[os.Signal]func(*Worker){
	os.Interrupt: (*Worker).ShutdownNow,
}
