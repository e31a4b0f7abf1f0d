package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/genyouth/wellness/internal/app/session"
	"github.com/genyouth/wellness/internal/daemon"
)

func init() {
	awardCmd.Flags().StringVar(&awardSource, "source", "cli", "Source recorded in the point history")
	logCmd.Flags().StringVar(&logDate, "date", "", "Activity date as YYYY-MM-DD (default today)")
	logCmd.Flags().IntVar(&logMinutes, "minutes", 0, "Minutes of activity")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of events to show")

	rootCmd.AddCommand(progressCmd, awardCmd, logCmd, challengeCmd, rolloverCmd, historyCmd)
}

var (
	awardSource  string
	logDate      string
	logMinutes   int
	historyLimit int
)

var progressCmd = &cobra.Command{
	Use:   "progress USER",
	Short: "Show a user's points, level, streak and unlocks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			snap, err := d.Sessions.Progress(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), snap)
			}
			return printSnapshot(cmd.OutOrStdout(), d.Sessions.Definitions(), snap)
		})
	},
}

var awardCmd = &cobra.Command{
	Use:   "award USER AMOUNT",
	Short: "Award points to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("amount %q: %w", args[1], err)
		}
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			res, err := d.Sessions.AwardPoints(cmd.Context(), args[0], amount, awardSource)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		})
	},
}

var logCmd = &cobra.Command{
	Use:   "log USER",
	Short: "Log an activity for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := time.Now()
		if logDate != "" {
			d, err := time.ParseInLocation(time.DateOnly, logDate, time.Local)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			date = d
		}
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			res, err := d.Sessions.LogActivity(cmd.Context(), args[0], date, logMinutes)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		})
	},
}

var challengeCmd = &cobra.Command{
	Use:   "challenge USER ID DELTA",
	Short: "Add progress to one of a user's challenges",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("delta %q: %w", args[2], err)
		}
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			res, err := d.Sessions.UpdateChallenge(cmd.Context(), args[0], args[1], delta)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		})
	},
}

var rolloverCmd = &cobra.Command{
	Use:   "rollover USER",
	Short: "Reset a user's challenges whose period has ended",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			rolled, _, err := d.Sessions.Rollover(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string][]string{"rolled_over": rolled})
			}
			if len(rolled) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No challenges to reset.")
				return nil
			}
			for _, id := range rolled {
				fmt.Fprintf(cmd.OutOrStdout(), "reset %s\n", id)
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history USER",
	Short: "Show a user's point history, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			events, err := d.Sessions.History(cmd.Context(), args[0], historyLimit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), events)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tAMOUNT\tSOURCE\tREF")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%+d\t%s\t%s\n", e.At.Local().Format("2006-01-02 15:04"), e.Amount, e.Source, e.RefID)
			}
			return w.Flush()
		})
	},
}

// withDaemon wires a daemon from config for the duration of fn.
func withDaemon(cmd *cobra.Command, fn func(d *daemon.Daemon) error) error {
	d, err := daemon.New(cmd.Context())
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}

func printResult(cmd *cobra.Command, res session.Result) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d points, level %d %s\n", res.Snapshot.Points, res.Snapshot.Level.Level, renderBar(res.Snapshot.Level.ProgressPct))
	printEvents(out, res.Events)
	return nil
}
