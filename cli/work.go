package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/resque/worker"
)

// childShutdownGrace bounds how long a worker process may take to exit
// after it is interrupted.
const childShutdownGrace = 30 * time.Second

func (a *app) workCommand() *cobra.Command {
	var (
		server   string
		queues   []string
		interval time.Duration
		count    int
		pidfile  string
	)
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Run workers",
		Long: `Run a worker polling --queues in order. "*" polls every known queue.

With --count greater than one, that many worker processes are started and
supervised; interrupting the supervisor interrupts all of them.

Signals handled by a worker process:
  QUIT       finish the current job, then exit
  TERM, INT  cancel the current job and exit
  USR1       cancel the current job and keep working
  USR2       pause processing
  CONT       resume processing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("invalid --count %d", count)
			}
			if count > 1 && pidfile != "" {
				return errors.New("--pidfile requires --count=1")
			}
			rq, cfg, err := a.open(cmd, server)
			if err != nil {
				return err
			}
			defer rq.Close()
			logger := rq.Logger()

			if count > 1 {
				return superviseWorkers(commandContext(cmd), logger, count, childArgs(os.Args[1:]))
			}

			qs := cfg.Queues
			if cmd.Flags().Changed("queues") {
				qs = queues
			}
			var wopts []worker.Option
			if cmd.Flags().Changed("interval") {
				wopts = append(wopts, worker.WithInterval(interval))
			}
			w := rq.NewWorker(qs, wopts...)

			if pidfile != "" {
				if err := os.WriteFile(pidfile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
					return fmt.Errorf("write pidfile: %w", err)
				}
				defer os.Remove(pidfile)
			}

			stop := w.HandleSignals()
			defer stop()
			return w.Run(commandContext(cmd))
		},
	}
	f := cmd.Flags()
	f.StringVar(&server, "server", "", "Server address (default from config)")
	f.StringSliceVar(&queues, "queues", nil, "Comma separated queues in priority order (default from config)")
	f.DurationVar(&interval, "interval", worker.DefaultInterval, "Idle sleep between polls")
	f.IntVar(&count, "count", 1, "Number of worker processes")
	f.StringVar(&pidfile, "pidfile", "", "Write the worker's pid to this file")
	return cmd
}

// superviseWorkers runs count copies of this program as single worker
// processes until they all exit or ctx is interrupted.
func superviseWorkers(ctx context.Context, logger *slog.Logger, count int, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for i := range count {
		g.Go(func() error {
			c := exec.CommandContext(gctx, exe, args...)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			c.Cancel = func() error { return c.Process.Signal(os.Interrupt) }
			c.WaitDelay = childShutdownGrace

			if err := c.Start(); err != nil {
				return fmt.Errorf("start worker process %d: %w", i, err)
			}
			logger.Info("worker process started",
				slog.Int("index", i),
				slog.Int("pid", c.Process.Pid),
			)
			err := c.Wait()
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				return fmt.Errorf("worker process %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// childArgs rewrites the command line of a supervisor into that of a
// single worker process.
func childArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	skipNext := false
	for _, arg := range args {
		switch {
		case skipNext:
			skipNext = false
		case arg == "--count":
			skipNext = true
		case strings.HasPrefix(arg, "--count="):
		default:
			out = append(out, arg)
		}
	}
	return append(out, "--count=1")
}
