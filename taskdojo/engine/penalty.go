package engine

import (
	"math"
	"time"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

// PenaltyResult is the outcome of one hourly penalty pass over a deadline
// task.
type PenaltyResult struct {
	StrengthLevel int
	Damage        int
	StruckDays    int
	DodgedDays    int
	Applied       bool // whether lastPenaltyDate should be stamped
}

// DodgeChance grows linearly with effective agility and is clamped to
// [0.05, 0.65].
func (c *Calculator) DodgeChance(effectiveAgility int) float64 {
	ch := c.cfg.DodgeBase + float64(effectiveAgility)*c.cfg.DodgePerAgi
	return math.Min(c.cfg.DodgeMax, math.Max(c.cfg.DodgeBase, ch))
}

// StrikeDamage is the per-overdue-day damage before dodge rolls.
func (c *Calculator) StrikeDamage(strengthLevel int, difficulty models.Difficulty, effectiveAgility int) int {
	mult := c.cfg.Difficulties[difficulty].DamageMultiplier
	dmg := int(math.Ceil((4+float64(strengthLevel)*2.5)*mult)) - effectiveAgility/14
	if dmg < c.cfg.MinStrike {
		dmg = c.cfg.MinStrike
	}
	return dmg
}

// EscalationLevel compounds neglect before and after the deadline, clamped
// to [1,10].
func EscalationLevel(daysSinceStart, overdueDays int) int {
	level := 1 + daysSinceStart/4
	if overdueDays > 4 {
		overdueDays = 4
	}
	level += overdueDays
	if level < 1 {
		level = 1
	}
	if level > 10 {
		level = 10
	}
	return level
}

// SameCalendarDay compares two instants under a fixed UTC offset that
// defines the logical day boundary.
func SameCalendarDay(a, b time.Time, offset time.Duration) bool {
	ay, am, ad := a.UTC().Add(offset).Date()
	by, bm, bd := b.UTC().Add(offset).Date()
	return ay == by && am == bm && ad == bd
}

// OverduePenalty evaluates one deadline task. The escalation level is
// recomputed and reported on every pass; damage only accrues once per
// calendar day (dayOffset fixes the day boundary) and only when overdue.
func (c *Calculator) OverduePenalty(task *models.Task, effectiveAgility int, now time.Time, dayOffset time.Duration) PenaltyResult {
	if task.Terminal() {
		return PenaltyResult{StrengthLevel: task.StrengthLevel}
	}

	daysSinceStart := int(now.Sub(task.StartDate).Hours() / 24)
	overdueDays := 0
	if now.After(task.Deadline) {
		overdueDays = int(now.Sub(task.Deadline).Hours() / 24)
		if overdueDays < 1 {
			overdueDays = 1
		}
	}

	res := PenaltyResult{
		StrengthLevel: EscalationLevel(daysSinceStart, overdueDays),
	}
	if overdueDays == 0 {
		return res
	}
	if !task.LastPenaltyDate.IsZero() && SameCalendarDay(task.LastPenaltyDate, now, dayOffset) {
		return res
	}

	dodge := c.DodgeChance(effectiveAgility)
	strike := c.StrikeDamage(res.StrengthLevel, task.Difficulty, effectiveAgility)
	for i := 0; i < overdueDays; i++ {
		if c.rng.Float64() < dodge {
			res.DodgedDays++
			continue
		}
		res.StruckDays++
		res.Damage += strike
	}
	res.Applied = true
	return res
}

// GoalOverdueDamage is the flat per-day accrual for a long-term goal past
// its target date. It applies every hourly pass with no daily dedup.
func (c *Calculator) GoalOverdueDamage(task *models.Task, now time.Time) int {
	if task.Terminal() || task.Achieved || task.TargetDate.IsZero() || !now.After(task.TargetDate) {
		return 0
	}
	days := int(now.Sub(task.TargetDate).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days * c.cfg.GoalOverdueHP
}

// UrgentExpired reports whether an urgent task blew its expiry; the caller
// applies the flat damage once and hard-deletes the task.
func (c *Calculator) UrgentExpired(task *models.Task, now time.Time) (int, bool) {
	if task.Terminal() || task.ExpiresAt.IsZero() || now.Before(task.ExpiresAt) {
		return 0, false
	}
	return c.cfg.UrgentExpiry, true
}
