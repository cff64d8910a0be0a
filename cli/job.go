package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/resque/status"
)

func (a *app) pushCommand() *cobra.Command {
	var untracked bool
	cmd := &cobra.Command{
		Use:   "job:push <server> <queue> <class> [args-json]",
		Short: "Push a job to a queue",
		Long: `Push a job to a queue. Arguments are given as JSON, for example:

  resque job:push 127.0.0.1:6379 mail SendEmail '{"to":"alice@example.com"}'

The job is tracked unless --untracked is set; its token is printed.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, queue, class := args[0], args[1], args[2]
			var payload any
			if len(args) == 4 && args[3] != "" {
				raw := json.RawMessage(args[3])
				if !json.Valid(raw) {
					return errors.New("invalid json given for job arguments")
				}
				payload = raw
			}

			rq, _, err := a.open(cmd, server)
			if err != nil {
				return err
			}
			defer rq.Close()

			token, err := rq.Enqueue(commandContext(cmd), queue, class, payload, !untracked)
			if err != nil {
				return err
			}
			rq.Logger().Info("enqueued job",
				slog.String("queue", queue),
				slog.String("class", class),
				slog.String("token", token),
			)
			if token != "" {
				fmt.Fprintln(cmd.OutOrStdout(), token)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&untracked, "untracked", false, "Do not track the job's status")
	return cmd
}

func (a *app) statusCommand() *cobra.Command {
	var (
		interval      time.Duration
		once          bool
		untilTerminal bool
	)
	cmd := &cobra.Command{
		Use:   "job:status <server> <token>",
		Short: "Follow the status of a tracked job",
		Long: `Poll the status of a tracked job every --interval and print each
change until its record expires. With --until-terminal the command exits
as soon as the job fails or completes. Press CTRL-C to stop.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, token := args[0], args[1]
			if interval <= 0 {
				return fmt.Errorf("invalid --interval %s", interval)
			}
			rq, _, err := a.open(cmd, server)
			if err != nil {
				return err
			}
			defer rq.Close()

			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()
			tracking, err := rq.Tracker().IsTracking(ctx, token)
			if err != nil {
				return err
			}
			if !tracking {
				fmt.Fprintf(out, "job %s is not being tracked\n", token)
				return nil
			}

			t := time.NewTicker(interval)
			defer t.Stop()
			last := status.Absent
			for {
				st, err := rq.Status(ctx, token)
				if err != nil {
					return err
				}
				if st == status.Absent {
					fmt.Fprintf(out, "job %s is no longer tracked\n", token)
					return nil
				}
				if st != last {
					fmt.Fprintf(out, "status: %s\n", st)
					last = st
				}
				if once || (untilTerminal && st.Terminal()) {
					return nil
				}
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
				}
			}
		},
	}
	f := cmd.Flags()
	f.DurationVar(&interval, "interval", time.Second, "Polling interval")
	f.BoolVar(&once, "once", false, "Print the current status and exit")
	f.BoolVar(&untilTerminal, "until-terminal", false, "Exit once the job has failed or completed")
	return cmd
}
