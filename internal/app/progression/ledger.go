// Package progression implements the per-user progression ledger:
// points, streaks, achievements, recurring challenges and milestones.
//
// A Ledger is a synchronous state machine with no I/O. It is not safe for
// concurrent use; the host serializes calls per user (see package session).
// Every public operation validates its input before touching state, so a
// rejected call leaves the ledger exactly as it was.
package progression

import (
	"fmt"
	"math"
	"time"

	"github.com/genyouth/wellness/internal/domain"
)

// Ledger owns one user's progression state.
type Ledger struct {
	defs    domain.Definitions
	chIndex map[string]int
	now     func() time.Time
	st      state
	events  []domain.Event
	awards  []domain.PointAward
}

type state struct {
	points              int64
	streak              domain.Streak
	activities          int64
	activityMinutes     int64
	challengesCompleted int64
	achievements        []domain.AchievementState // parallel to defs.Achievements
	challenges          []domain.ChallengeState   // parallel to defs.Challenges
	milestones          []domain.MilestoneState   // parallel to defs.Milestones
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the clock used for unlock timestamps and initial periods.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates an empty ledger: zero points, no streak, everything locked,
// every challenge open in the period containing the clock's current time.
func New(defs domain.Definitions, opts ...Option) *Ledger {
	l := &Ledger{defs: defs, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	l.index()

	now := l.now()
	l.st.achievements = make([]domain.AchievementState, len(defs.Achievements))
	for i, d := range defs.Achievements {
		l.st.achievements[i] = domain.AchievementState{ID: d.ID}
	}
	l.st.challenges = make([]domain.ChallengeState, len(defs.Challenges))
	for i, d := range defs.Challenges {
		l.st.challenges[i] = freshChallenge(d, PeriodKey(d.Category, now))
	}
	l.st.milestones = make([]domain.MilestoneState, len(defs.Milestones))
	for i, d := range defs.Milestones {
		l.st.milestones[i] = domain.MilestoneState{ID: d.ID}
	}
	return l
}

// Restore rebuilds a ledger from a previously taken snapshot.
// Catalog entries absent from the snapshot start locked or open; snapshot
// entries absent from the catalog are dropped. Challenge targets and
// rewards always come from the catalog.
func Restore(defs domain.Definitions, snap domain.Snapshot, opts ...Option) (*Ledger, error) {
	if snap.Points < 0 || snap.Activities < 0 || snap.ActivityMinutes < 0 || snap.ChallengesCompleted < 0 {
		return nil, fmt.Errorf("restore: negative counter: %w", domain.ErrInvalidAmount)
	}
	if snap.Streak.Current < 0 || snap.Streak.Longest < 0 {
		return nil, fmt.Errorf("restore: negative streak: %w", domain.ErrInvalidAmount)
	}

	l := New(defs, opts...)
	l.st.points = snap.Points
	l.st.activities = snap.Activities
	l.st.activityMinutes = snap.ActivityMinutes
	l.st.challengesCompleted = snap.ChallengesCompleted

	l.st.streak = snap.Streak
	if !l.st.streak.LastDate.IsZero() {
		l.st.streak.LastDate = CalendarDay(l.st.streak.LastDate)
	}
	l.st.streak.Longest = max(l.st.streak.Longest, l.st.streak.Current)

	achievements := make(map[string]domain.AchievementState, len(snap.Achievements))
	for _, a := range snap.Achievements {
		achievements[a.ID] = a
	}
	for i := range l.st.achievements {
		if a, ok := achievements[l.st.achievements[i].ID]; ok && a.Unlocked {
			l.st.achievements[i] = a
		}
	}

	milestones := make(map[string]domain.MilestoneState, len(snap.Milestones))
	for _, m := range snap.Milestones {
		milestones[m.ID] = m
	}
	for i := range l.st.milestones {
		if m, ok := milestones[l.st.milestones[i].ID]; ok && m.Unlocked {
			l.st.milestones[i] = m
		}
	}

	for _, c := range snap.Challenges {
		i, ok := l.chIndex[c.ID]
		if !ok || c.Progress < 0 {
			continue
		}
		cur := &l.st.challenges[i]
		cur.PeriodKey = c.PeriodKey
		cur.Progress = min(c.Progress, cur.Target)
		cur.Completed = c.Completed
		cur.CompletedAt = c.CompletedAt
	}

	return l, nil
}

func (l *Ledger) index() {
	l.chIndex = make(map[string]int, len(l.defs.Challenges))
	for i, d := range l.defs.Challenges {
		if _, dup := l.chIndex[d.ID]; !dup {
			l.chIndex[d.ID] = i
		}
	}
}

// ─── Points ─────────────────────────────────────────────────────────────────

// Balance returns the current point balance.
func (l *Ledger) Balance() int64 { return l.st.points }

// AwardPoints adds amount to the balance and unlocks every milestone and
// point-driven achievement the new balance satisfies. Rewards of newly
// unlocked achievements are awarded through the same path.
func (l *Ledger) AwardPoints(amount int64) (int64, error) {
	return l.AwardPointsFrom(amount, domain.SourceManual, "")
}

// AwardPointsFrom is AwardPoints with an explicit audit source and reference.
func (l *Ledger) AwardPointsFrom(amount int64, source, ref string) (int64, error) {
	if amount < 0 || amount > math.MaxInt64-l.st.points {
		return l.st.points, fmt.Errorf("award %d points: %w", amount, domain.ErrInvalidAmount)
	}
	if source == "" {
		source = domain.SourceManual
	}
	l.award(amount, source, ref, "")
	return l.st.points, nil
}

// award is the single mutation path for the balance. exclude names the
// achievement whose reward is being paid, which must not be re-evaluated
// inside its own award. Rewards that would overflow the balance are capped
// at math.MaxInt64.
func (l *Ledger) award(amount int64, source, ref, exclude string) {
	amount = min(amount, math.MaxInt64-l.st.points)
	if amount > 0 {
		before := LevelForPoints(l.st.points)
		l.st.points += amount
		l.awards = append(l.awards, domain.PointAward{
			Amount: amount,
			Source: source,
			RefID:  ref,
			At:     l.now(),
		})
		if after := LevelForPoints(l.st.points); after > before {
			l.emit(domain.EventLevelUp, fmt.Sprintf("level-%d", after), fmt.Sprintf("Level %d", after), 0)
		}
	}
	l.unlockMilestones()
	l.evaluate(pointDriven, exclude)
}

// pointDriven selects the conditions an award can newly satisfy.
func pointDriven(c domain.Condition) bool {
	return c.ReferencesPoints() || c.Kind == domain.CondAchievementsUnlockedAtLeast
}

func anyCondition(domain.Condition) bool { return true }

// ─── Unlock Evaluation ──────────────────────────────────────────────────────

// evaluate unlocks every locked achievement selected by match whose
// condition holds, repeating until nothing new unlocks.
func (l *Ledger) evaluate(match func(domain.Condition) bool, exclude string) {
	for changed := true; changed; {
		changed = false
		for i := range l.defs.Achievements {
			def := l.defs.Achievements[i]
			if l.st.achievements[i].Unlocked || def.ID == exclude || !match(def.Condition) {
				continue
			}
			if !def.Condition.Met(l.Stats()) {
				continue
			}
			l.st.achievements[i].Unlocked = true
			l.st.achievements[i].UnlockedAt = l.now()
			l.emit(domain.EventAchievementUnlocked, def.ID, def.Title, def.Points)
			changed = true
			if def.Points > 0 {
				l.award(def.Points, domain.SourceAchievement, def.ID, def.ID)
			}
		}
	}
}

func (l *Ledger) unlockMilestones() {
	for i, def := range l.defs.Milestones {
		if l.st.milestones[i].Unlocked || l.st.points < def.RequiredPoints {
			continue
		}
		l.st.milestones[i].Unlocked = true
		l.st.milestones[i].UnlockedAt = l.now()
		l.emit(domain.EventMilestoneUnlocked, def.ID, def.Title, 0)
	}
}

// Stats returns the flat statistics view unlock conditions read.
func (l *Ledger) Stats() domain.LedgerStats {
	unlocked := 0
	for _, a := range l.st.achievements {
		if a.Unlocked {
			unlocked++
		}
	}
	return domain.LedgerStats{
		Points:               l.st.points,
		CurrentStreak:        l.st.streak.Current,
		LongestStreak:        l.st.streak.Longest,
		Activities:           l.st.activities,
		ActivityMinutes:      l.st.activityMinutes,
		ChallengesCompleted:  l.st.challengesCompleted,
		AchievementsUnlocked: unlocked,
	}
}

// ─── Activity ───────────────────────────────────────────────────────────────

// LogActivity records minutes of activity on date's calendar day and
// advances the streak. Logging before the last logged day is rejected.
func (l *Ledger) LogActivity(date time.Time, minutes int) (domain.Streak, error) {
	if minutes < 0 || int64(minutes) > math.MaxInt64-l.st.activityMinutes {
		return l.st.streak, fmt.Errorf("log %d minutes: %w", minutes, domain.ErrInvalidAmount)
	}
	next, err := advanceStreak(l.st.streak, date)
	if err != nil {
		return l.st.streak, err
	}

	l.st.streak = next
	if l.st.activities < math.MaxInt64 {
		l.st.activities++
	}
	l.st.activityMinutes += int64(minutes)
	l.evaluate(anyCondition, "")
	return l.st.streak, nil
}

// ─── Challenges ─────────────────────────────────────────────────────────────

// UpdateChallengeProgress rolls the challenge over to now's period if
// needed, then adds delta to its progress, clamped at the target. The
// challenge's reward is awarded once, on the transition to completed;
// further calls in the same period change nothing.
func (l *Ledger) UpdateChallengeProgress(id string, delta int, now time.Time) (domain.ChallengeState, error) {
	i, ok := l.chIndex[id]
	if !ok {
		return domain.ChallengeState{}, fmt.Errorf("challenge %q: %w", id, domain.ErrUnknownChallenge)
	}
	if delta < 0 {
		return l.st.challenges[i], fmt.Errorf("challenge %q delta %d: %w", id, delta, domain.ErrInvalidAmount)
	}

	l.rollover(i, now)
	ch := &l.st.challenges[i]
	if ch.Completed {
		return *ch, nil
	}

	ch.Progress = min(ch.Progress+delta, ch.Target)
	if ch.Progress >= ch.Target {
		ch.Completed = true
		ch.CompletedAt = now
		l.st.challengesCompleted++
		def := l.defs.Challenges[i]
		l.emit(domain.EventChallengeCompleted, def.ID, def.Title, def.Points)
		l.award(def.Points, domain.SourceChallenge, def.ID, "")
		l.evaluate(anyCondition, "")
	}
	return l.st.challenges[i], nil
}

// RolloverChallenges resets every challenge whose period window no longer
// contains now. It returns the ids that were reset; calling it again within
// the same windows is a no-op.
func (l *Ledger) RolloverChallenges(now time.Time) []string {
	var rolled []string
	for i := range l.st.challenges {
		if l.rollover(i, now) {
			rolled = append(rolled, l.st.challenges[i].ID)
		}
	}
	return rolled
}

func (l *Ledger) rollover(i int, now time.Time) bool {
	key := PeriodKey(l.defs.Challenges[i].Category, now)
	if l.st.challenges[i].PeriodKey == key {
		return false
	}
	l.st.challenges[i] = freshChallenge(l.defs.Challenges[i], key)
	return true
}

func freshChallenge(d domain.ChallengeDef, periodKey string) domain.ChallengeState {
	return domain.ChallengeState{
		ID:        d.ID,
		Category:  d.Category,
		Target:    d.Target,
		Points:    d.Points,
		PeriodKey: periodKey,
	}
}

// Challenge returns the current state of one challenge.
func (l *Ledger) Challenge(id string) (domain.ChallengeState, error) {
	i, ok := l.chIndex[id]
	if !ok {
		return domain.ChallengeState{}, fmt.Errorf("challenge %q: %w", id, domain.ErrUnknownChallenge)
	}
	return l.st.challenges[i], nil
}

// ─── Read Side ──────────────────────────────────────────────────────────────

// Snapshot returns a deep copy of the ledger state in catalog order.
func (l *Ledger) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Points:              l.st.points,
		Streak:              l.st.streak,
		Activities:          l.st.activities,
		ActivityMinutes:     l.st.activityMinutes,
		ChallengesCompleted: l.st.challengesCompleted,
		Level:               LevelProgress(l.st.points),
		Achievements:        append([]domain.AchievementState(nil), l.st.achievements...),
		Challenges:          append([]domain.ChallengeState(nil), l.st.challenges...),
		Milestones:          append([]domain.MilestoneState(nil), l.st.milestones...),
	}
}

// Definitions returns the catalog the ledger was built from.
func (l *Ledger) Definitions() domain.Definitions { return l.defs }

func (l *Ledger) emit(kind domain.EventKind, ref, title string, points int64) {
	l.events = append(l.events, domain.Event{
		Kind:   kind,
		RefID:  ref,
		Title:  title,
		Points: points,
		At:     l.now(),
	})
}

// DrainEvents returns the events emitted since the last drain and clears them.
func (l *Ledger) DrainEvents() []domain.Event {
	ev := l.events
	l.events = nil
	return ev
}

// DrainAwards returns the point awards made since the last drain and clears them.
func (l *Ledger) DrainAwards() []domain.PointAward {
	aw := l.awards
	l.awards = nil
	return aw
}
