package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/resque/stat"
	"github.com/xraph/resque/worker"
)

func (a *app) queuesCommand() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "queues",
		Short: "List known queues and their pending job counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rq, _, err := a.open(cmd, server)
			if err != nil {
				return err
			}
			defer rq.Close()

			ctx := commandContext(cmd)
			queues, err := rq.Queues(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "QUEUE\tPENDING")
			for _, q := range queues {
				n, err := rq.Size(ctx, q)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%d\n", q, n)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Server address (default from config)")
	return cmd
}

func (a *app) workersCommand() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "List registered workers and what they are working on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rq, _, err := a.open(cmd, server)
			if err != nil {
				return err
			}
			defer rq.Close()

			ctx := commandContext(cmd)
			ids, err := rq.Workers(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WORKER\tPROCESSED\tFAILED\tWORKING ON")
			for _, id := range ids {
				processed, _ := rq.Stats().Get(ctx, stat.Scoped(stat.Processed, id))
				failed, _ := rq.Stats().Get(ctx, stat.Scoped(stat.Failed, id))
				doing := "idle"
				rec, err := worker.Working(ctx, rq.Broker(), id)
				if err != nil {
					doing = "unknown"
				} else if rec != nil {
					doing = fmt.Sprintf("%s on %s since %s", rec.Payload.Class, rec.Queue, rec.RunAt.Format(time.RFC3339))
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", id, processed, failed, doing)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Server address (default from config)")
	return cmd
}

func (a *app) statsCommand() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show global processed and failed counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rq, _, err := a.open(cmd, server)
			if err != nil {
				return err
			}
			defer rq.Close()

			ctx := commandContext(cmd)
			processed, err := rq.Stats().Get(ctx, stat.Processed)
			if err != nil {
				return err
			}
			failed, err := rq.Stats().Get(ctx, stat.Failed)
			if err != nil {
				return err
			}
			logged, err := rq.Failures().Count(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "processed: %d\n", processed)
			fmt.Fprintf(out, "failed: %d\n", failed)
			fmt.Fprintf(out, "failure log: %d\n", logged)
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Server address (default from config)")
	return cmd
}
