package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/nearcart/internal/server"
)

var (
	queueWorkersFlag int
	failedLimitFlag  int
)

// nearcart queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Run receipt workers without the HTTP server (QUEUE_DRIVER=redis)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := server.Boot(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 1
		}
		fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		app.Queue.Work(ctx, workers)

		<-ctx.Done()
		fmt.Println("\nQueue worker stopped.")
		return nil
	},
}

// nearcart queue:failed
var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List jobs that exhausted their retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := server.Boot(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		records, err := app.Queue.StoredFailures(cmd.Context(), failedLimitFlag)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No failed jobs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tJOB\tATTEMPTS\tFAILED AT\tERROR")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", r.ID, r.JobType, r.Attempts, r.FailedAt.Format("2006-01-02 15:04:05"), r.Error)
		}
		return w.Flush()
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 2, "Number of concurrent workers")
	queueFailedCmd.Flags().IntVarP(&failedLimitFlag, "limit", "n", 20, "Maximum number of failures to list")
}
