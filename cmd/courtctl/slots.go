// cmd/courtctl/slots.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codr1/quickcourt/internal/app"
	"github.com/codr1/quickcourt/internal/ledger"
	"github.com/codr1/quickcourt/internal/timeslot"
)

func slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Manage court slots",
	}
	cmd.AddCommand(slotsBulkCmd())
	return cmd
}

func slotsBulkCmd() *cobra.Command {
	var (
		courtID    int64
		from, to   string
		start, end string
		action     string
		exclude    []string
		reason     string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Apply an action to a daily window across a date range",
		Example: `  courtctl slots bulk --court 3 --from 2030-03-01 --to 2030-03-31 \
    --start 06:00 --end 08:00 --action block --exclude saturday,sunday --reason "league"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDate, err := timeslot.ParseDate(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			toDate, err := timeslot.ParseDate(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			window, err := timeslot.ParseInterval(start, end)
			if err != nil {
				return fmt.Errorf("--start/--end: %w", err)
			}
			act, err := ledger.ParseAction(action)
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Ledger.ApplyBulk(ctx, ledger.BulkRequest{
					CourtID:         courtID,
					From:            fromDate,
					To:              toDate,
					Window:          window,
					Action:          act,
					ExcludeWeekdays: exclude,
					Reason:          reason,
				})
				if err != nil {
					return err
				}
				if outputJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Court %d: %s %s on %d dates, %d slots updated, %d skipped\n",
					courtID, act, window, res.Dates, res.Affected, res.Skipped)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&courtID, "court", 0, "Court ID")
	cmd.Flags().StringVar(&from, "from", "", "First date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "", "Window start (HH:MM)")
	cmd.Flags().StringVar(&end, "end", "", "Window end (HH:MM)")
	cmd.Flags().StringVar(&action, "action", "", "One of "+strings.Join([]string{
		string(ledger.ActionMakeAvailable), string(ledger.ActionBlock), string(ledger.ActionSetMaintenance),
	}, ", "))
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Weekdays to skip, e.g. saturday,sunday")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason shown on blocked slots")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output JSON")
	for _, name := range []string{"court", "from", "to", "start", "end", "action"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
