package worker

import (
	"log/slog"
	"os"
	"os/signal"
)

// HandleSignals installs the worker's signal handlers and returns a
// function that removes them. The actions per signal are platform
// specific; see signalActions.
func (w *Worker) HandleSignals() (stop func()) {
	sigs := make([]os.Signal, 0, len(signalActions))
	for sig := range signalActions {
		sigs = append(sigs, sig)
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				w.handleSignal(sig)
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}

func (w *Worker) handleSignal(sig os.Signal) {
	action, ok := signalActions[sig]
	if !ok {
		return
	}
	w.logger.Debug("signal received", slog.String("signal", sig.String()), slog.String("worker", w.ID()))
	action(w)
}
