// Command nearcart runs the marketplace server and its maintenance tasks.
//
//	nearcart serve              # HTTP + gRPC, queue workers, scheduler
//	nearcart migrate            # apply pending migrations
//	nearcart migrate:rollback   # roll back the last batch
//	nearcart migrate:status
//	nearcart seed               # demo users, shops and stock
//	nearcart route:list
//	nearcart queue:work -w 4    # receipt workers only
//	nearcart queue:failed
//	nearcart token:issue --user 1 --role customer
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/shashiranjanraj/nearcart/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "nearcart",
	Short:         "nearcart: hyperlocal multi-shop marketplace",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(queueFailedCmd)

	rootCmd.AddCommand(tokenIssueCmd)
}
