// cmd/courtctl/jobs.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/codr1/quickcourt/internal/app"
)

func completeCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Mark confirmed bookings whose end time has passed as completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if limit <= 0 {
					limit = a.Config.Booking.CompletionBatchSize
				}
				n, err := a.Bookings.CompleteElapsed(ctx, time.Now(), limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %d bookings\n", n)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum bookings to complete (defaults to booking.completion_batch_size)")
	return cmd
}

func refundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refunds",
		Short: "Inspect and retry queued refunds",
	}

	var limit int
	reconcile := &cobra.Command{
		Use:   "reconcile",
		Short: "Retry refunds that are due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if limit <= 0 {
					limit = a.Config.Booking.RefundBatchSize
				}
				res, err := a.Bookings.ReconcileRefunds(ctx, time.Now(), limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Attempted %d refunds: %d succeeded, %d failed\n",
					res.Attempted, res.Succeeded, res.Failed)
				return nil
			})
		},
	}
	reconcile.Flags().IntVar(&limit, "limit", 0, "Maximum refunds to attempt (defaults to booking.refund_batch_size)")

	cmd.AddCommand(reconcile)
	return cmd
}
