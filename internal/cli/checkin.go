package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/genyouth/wellness/internal/daemon"
	"github.com/genyouth/wellness/internal/domain"
)

func init() {
	checkinCmd.Flags().StringVar(&checkinTag, "tag", "", "Mood word, e.g. anxious")
	checkinCmd.Flags().IntVar(&checkinMood, "mood", 0, "Mood score 1-10")
	checkinCmd.Flags().IntVar(&checkinEnergy, "energy", 0, "Energy score 1-10")
	checkinCmd.Flags().IntVar(&checkinStress, "stress", 0, "Stress score 1-10")
	checkinCmd.Flags().IntVar(&checkinSleep, "sleep", 0, "Sleep quality 1-10 (optional)")
	checkinCmd.Flags().StringVar(&checkinNote, "note", "", "Free-text journal note")
	moodsCmd.Flags().IntVar(&moodsDays, "days", 7, "Days of history to summarize")

	resourcesCmd.Flags().StringVar(&resourcesCountry, "country", "", "ISO country code, e.g. US")
	resourcesCmd.Flags().StringVar(&resourcesType, "type", "", "crisis, text, chat or local")

	rootCmd.AddCommand(checkinCmd, moodsCmd, resourcesCmd)
}

var (
	checkinTag, checkinNote                                 string
	checkinMood, checkinEnergy, checkinStress, checkinSleep int
	moodsDays                                               int
	resourcesCountry, resourcesType                         string
)

var checkinCmd = &cobra.Command{
	Use:   "checkin USER",
	Short: "Record a mood check-in for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := domain.CheckIn{
			Tag:    domain.MoodTag(checkinTag),
			Mood:   checkinMood,
			Energy: checkinEnergy,
			Stress: checkinStress,
			Sleep:  checkinSleep,
			Note:   checkinNote,
		}
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			rec, err := d.CheckIns.Record(cmd.Context(), args[0], in, nil)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), rec)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Checked in: mood %d, energy %d, stress %d\n", rec.CheckIn.Mood, rec.CheckIn.Energy, rec.CheckIn.Stress)
			printEvents(out, rec.Events)
			for _, it := range rec.Recommendations {
				fmt.Fprintf(out, "  try %s (%s)\n", it.Title, it.ID)
			}
			return nil
		})
	},
}

var moodsCmd = &cobra.Command{
	Use:   "moods USER",
	Short: "Show a user's check-in trend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			h, err := d.CheckIns.History(cmd.Context(), args[0], moodsDays, nil)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), h)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tN\tMOOD\tENERGY\tSTRESS\tSLEEP")
			for _, day := range h.Summary.Days {
				if day.Count == 0 {
					fmt.Fprintf(w, "%s\t0\t-\t-\t-\t-\n", day.Date)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%.1f\t%s\n",
					day.Date, day.Count, day.Mood, day.Energy, day.Stress, score(day.Sleep))
			}
			a := h.Summary.Averages
			fmt.Fprintf(w, "avg\t%d\t%.1f\t%.1f\t%.1f\t%s\n", a.Count, a.Mood, a.Energy, a.Stress, score(a.Sleep))
			return w.Flush()
		})
	},
}

func score(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List crisis support lines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		typ := domain.ResourceType(domain.NormalizeTag(resourcesType))
		if typ != "" && !typ.Known() {
			return fmt.Errorf("--type %q: want crisis, text, chat or local", resourcesType)
		}
		cat, err := configuredCatalog()
		if err != nil {
			return err
		}
		list := cat.ResourcesFor(resourcesCountry, typ)
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), list)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCONTACT\tHOURS\tTYPE")
		for _, r := range list {
			contact := strings.TrimSpace(r.Phone + " " + r.URL)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, contact, r.Availability, r.Type)
		}
		return w.Flush()
	},
}
