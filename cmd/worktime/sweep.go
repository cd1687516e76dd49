package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"worktime/internal/service"
)

func sweepCmd(configPath *string) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Close every open day left over from an earlier date",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(*configPath)
			if err != nil {
				return err
			}
			defer app.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			closed, err := app.ledger(service.NopNotifier{}).CloseStaleDays(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "closed %d stale day(s)\n", closed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "time limit for the sweep")
	return cmd
}
