package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/genyouth/wellness/internal/domain"
)

// ─── Progress Bar ───────────────────────────────────────────────────────────
// Renders level progress as: [=========>..........]  45%

const barWidth = 30 // Characters for the progress bar

func renderBar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	var bar string
	if filled == barWidth {
		bar = strings.Repeat("=", filled)
	} else if filled > 0 {
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty)
	} else {
		bar = strings.Repeat(".", barWidth)
	}
	return fmt.Sprintf("[%s] %3.0f%%", bar, pct)
}

// printSnapshot writes a human-readable summary of a ledger snapshot,
// titled from defs.
func printSnapshot(out io.Writer, defs domain.Definitions, snap domain.Snapshot) error {
	fmt.Fprintf(out, "Level %d  %s  %d points, %d to next\n",
		snap.Level.Level, renderBar(snap.Level.ProgressPct), snap.Points, snap.Level.PointsToNext)
	fmt.Fprintf(out, "Streak %d days (longest %d)  Activities %d (%d min)  Challenges completed %d\n\n",
		snap.Streak.Current, snap.Streak.Longest, snap.Activities, snap.ActivityMinutes, snap.ChallengesCompleted)

	achievements := make(map[string]domain.AchievementDef, len(defs.Achievements))
	for _, a := range defs.Achievements {
		achievements[a.ID] = a
	}
	challenges := make(map[string]domain.ChallengeDef, len(defs.Challenges))
	for _, c := range defs.Challenges {
		challenges[c.ID] = c
	}
	milestones := make(map[string]domain.MilestoneDef, len(defs.Milestones))
	for _, m := range defs.Milestones {
		milestones[m.ID] = m
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACHIEVEMENT\tRARITY\tPOINTS\tUNLOCKED")
	for _, a := range snap.Achievements {
		def := achievements[a.ID]
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", def.Title, def.Rarity, def.Points, unlockedAt(a.Unlocked, a.UnlockedAt))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CHALLENGE\tPERIOD\tPROGRESS\tDONE")
	for _, c := range snap.Challenges {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", challenges[c.ID].Title, c.Category, fmt.Sprintf("%d/%d", c.Progress, c.Target), c.Completed)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "MILESTONE\tPOINTS\tUNLOCKED")
	for _, m := range snap.Milestones {
		def := milestones[m.ID]
		fmt.Fprintf(w, "%s\t%d\t%s\n", def.Title, def.RequiredPoints, unlockedAt(m.Unlocked, m.UnlockedAt))
	}
	return w.Flush()
}

func unlockedAt(unlocked bool, at time.Time) string {
	if !unlocked {
		return "-"
	}
	return at.Format("2006-01-02 15:04")
}
