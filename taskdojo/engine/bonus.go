package engine

import (
	"math"
	"math/rand"
	"time"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

// Calculator bundles the tuning config with a random source so tests can
// seed it deterministically.
type Calculator struct {
	cfg *Config
	rng *rand.Rand
}

func NewCalculator(cfg *Config, rng *rand.Rand) *Calculator {
	return &Calculator{cfg: cfg, rng: rng}
}

func (c *Calculator) Config() *Config { return c.cfg }

// HabitLink carries the linkage-relevant state of a recurring-habit task.
type HabitLink struct {
	Streak           int
	TotalCompletions int
}

// GoalLink carries the linkage-relevant state of a long-term-goal task.
// Progress is the completed fraction of linked deadline tasks in [0,1].
type GoalLink struct {
	Progress   float64
	TargetDate time.Time
}

type RewardInput struct {
	Difficulty   models.Difficulty
	Genre        string
	Job          models.Job
	Habit        *HabitLink
	Goal         *GoalLink
	AIMultiplier float64
	Deadline     time.Time
	Now          time.Time
}

type Reward struct {
	Exp    int
	Coins  int
	JobExp int

	BaseExp   int
	BaseCoins int
	Linkage   float64
	Early     bool
}

func (c *Calculator) rollBand(b RewardBand) int {
	if b.Max <= b.Min {
		return b.Min
	}
	return b.Min + c.rng.Intn(b.Max-b.Min+1)
}

// HabitLinkageMultiplier follows the streak step curve with a hard cap, plus
// a loyalty bump at 60 and 120 total completions.
func (c *Calculator) HabitLinkageMultiplier(streak, totalCompletions int) float64 {
	bonus := math.Min(c.cfg.HabitStreakCap, float64(streak/5)*c.cfg.HabitStreakStep)
	switch {
	case totalCompletions >= 120:
		bonus += 0.1
	case totalCompletions >= 60:
		bonus += 0.05
	}
	return math.Min(c.cfg.LinkageCap, 1+bonus)
}

// GoalLinkageMultiplier grants a flat base bonus, a progress bonus that ramps
// in past 50% completion, and an urgency bump near the target date.
func (c *Calculator) GoalLinkageMultiplier(progress float64, target, now time.Time) float64 {
	bonus := c.cfg.GoalBaseBonus
	if progress > 0.5 {
		over := math.Min(1, (progress-0.5)/0.5)
		bonus += c.cfg.GoalProgressBonus * over
	}
	if !target.IsZero() {
		until := target.Sub(now)
		switch {
		case until <= 3*24*time.Hour:
			bonus += 0.1
		case until <= 7*24*time.Hour:
			bonus += 0.05
		}
	}
	return math.Min(c.cfg.LinkageCap, 1+bonus)
}

// applyMult floors at the point of application; the stacking order is part
// of the reward contract.
func applyMult(v int, m float64) int {
	return int(float64(v) * m)
}

// CalculateReward runs the full stacking pipeline for a completed deadline
// task: base roll, linkage, AI verification, job, early completion. Each
// multiplication truncates immediately.
func (c *Calculator) CalculateReward(in RewardInput) Reward {
	dc := c.cfg.Difficulties[in.Difficulty]

	r := Reward{
		BaseExp:   c.rollBand(dc.Exp),
		BaseCoins: c.rollBand(dc.Coins),
		Linkage:   1.0,
	}

	switch {
	case in.Habit != nil:
		r.Linkage = c.HabitLinkageMultiplier(in.Habit.Streak, in.Habit.TotalCompletions)
	case in.Goal != nil:
		r.Linkage = c.GoalLinkageMultiplier(in.Goal.Progress, in.Goal.TargetDate, in.Now)
	}

	exp := applyMult(r.BaseExp, r.Linkage)
	coins := applyMult(r.BaseCoins, r.Linkage)

	// Callers without a verification report pass 1.0; a literal 0 zeroes the
	// reward on purpose.
	exp = applyMult(exp, in.AIMultiplier)
	coins = applyMult(coins, in.AIMultiplier)

	switch in.Job {
	case models.JobWarrior:
		if in.Genre == "combat" {
			exp = applyMult(exp, 1.2)
		}
	case models.JobMerchant:
		coins = applyMult(coins, 1.25)
	}

	if !in.Deadline.IsZero() && in.Now.Before(in.Deadline) {
		r.Early = true
		exp = applyMult(exp, c.cfg.EarlyBonus)
		coins = applyMult(coins, c.cfg.EarlyBonus)
	}

	r.Exp = exp
	r.Coins = coins
	r.JobExp = int(float64(exp) * c.cfg.JobExpShare)
	return r
}
