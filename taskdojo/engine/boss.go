package engine

import (
	"math"
	"time"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

// PlayerAttackDamage is the player-initiated strike, allowed at most once
// per calendar day per boss.
func (c *Calculator) PlayerAttackDamage(effectiveStrength, level, bossNumber int) int {
	scaler := math.Max(1, float64(bossNumber)*0.08+1)
	dmg := int(math.Floor((float64(effectiveStrength) + float64(level)*2) * 1.2 * scaler))
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// BossRetaliationDamage is the daily automatic boss strike, reduced by
// effective vitality.
func (c *Calculator) BossRetaliationDamage(bossAttackPower, effectiveVitality int) int {
	dmg := int(math.Floor(float64(bossAttackPower)*0.85)) - int(math.Floor(float64(effectiveVitality)*0.65))
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// DefeatReward scales with the chapter number.
func (c *Calculator) DefeatReward(bossNumber int) (exp, coins int) {
	return bossNumber * c.cfg.BossRewardExp, bossNumber * c.cfg.BossRewardCoins
}

// NextBoss builds the successor chapter boss. HP and attack are strictly
// greater than the defeated boss's for any non-negative chapter number.
func (c *Calculator) NextBoss(defeated *models.Boss, name string, now time.Time) *models.Boss {
	number := defeated.Number + 1
	hp := c.cfg.BossBaseHP + number*c.cfg.BossHPPerNumber
	return &models.Boss{
		Name:               name,
		Number:             number,
		HP:                 hp,
		MaxHP:              hp,
		AttackPower:        c.cfg.BossBaseAttack + number*c.cfg.BossAtkPerNumber,
		ChallengeStartDate: now,
	}
}
