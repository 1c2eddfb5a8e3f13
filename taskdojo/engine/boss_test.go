package engine

import (
	"testing"
	"time"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

func TestPlayerAttackDamage(t *testing.T) {
	c := testCalculator(1, nil)
	tests := []struct {
		name       string
		strength   int
		level      int
		bossNumber int
		want       int
	}{
		// (5 + 1*2) * 1.2 * 1.08 = 9.072
		{name: "FreshPlayerChapterOne", strength: 5, level: 1, bossNumber: 1, want: 9},
		// (30 + 10*2) * 1.2 * 1.4 = 84
		{name: "MidGame", strength: 30, level: 10, bossNumber: 5, want: 84},
		{name: "NeverBelowOne", strength: 0, level: 0, bossNumber: 0, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.PlayerAttackDamage(tt.strength, tt.level, tt.bossNumber); got != tt.want {
				t.Errorf("PlayerAttackDamage(%d, %d, %d) = %v, want %v",
					tt.strength, tt.level, tt.bossNumber, got, tt.want)
			}
		})
	}
}

func TestBossRetaliationDamage(t *testing.T) {
	c := testCalculator(1, nil)
	tests := []struct {
		name     string
		attack   int
		vitality int
		want     int
	}{
		// floor(20*0.85) - floor(10*0.65) = 17 - 6 = 11
		{name: "Typical", attack: 20, vitality: 10, want: 11},
		{name: "TankyFloorsAtOne", attack: 10, vitality: 100, want: 1},
		{name: "ZeroVitality", attack: 12, vitality: 0, want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.BossRetaliationDamage(tt.attack, tt.vitality); got != tt.want {
				t.Errorf("BossRetaliationDamage(%d, %d) = %v, want %v",
					tt.attack, tt.vitality, got, tt.want)
			}
		})
	}
}

func TestDefeatReward(t *testing.T) {
	c := testCalculator(1, nil)
	exp, coins := c.DefeatReward(3)
	if exp != 1500 || coins != 600 {
		t.Errorf("DefeatReward(3) = (%d, %d), want (1500, 600)", exp, coins)
	}
}

// A lethal strike ends the chapter and the successor must be strictly
// stronger than the boss it replaces.
func TestNextBossStrictlyStronger(t *testing.T) {
	c := testCalculator(1, nil)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	defeated := &models.Boss{Name: "Gatekeeper", Number: 1, HP: 10, MaxHP: 270, AttackPower: 17}
	if dmg := c.PlayerAttackDamage(10, 5, 1); dmg <= defeated.HP {
		t.Fatalf("attack %d should defeat a boss at %d HP", dmg, defeated.HP)
	}

	next := c.NextBoss(defeated, "Warden of the Second Gate", now)
	if next.Number != 2 {
		t.Errorf("Number = %d, want 2", next.Number)
	}
	if next.MaxHP <= defeated.MaxHP {
		t.Errorf("MaxHP = %d, want > %d", next.MaxHP, defeated.MaxHP)
	}
	if next.AttackPower <= defeated.AttackPower {
		t.Errorf("AttackPower = %d, want > %d", next.AttackPower, defeated.AttackPower)
	}
	if next.HP != next.MaxHP {
		t.Errorf("HP = %d, want full %d", next.HP, next.MaxHP)
	}
	if !next.ChallengeStartDate.Equal(now) {
		t.Errorf("ChallengeStartDate = %v, want %v", next.ChallengeStartDate, now)
	}
}

func TestNextBossChainMonotonic(t *testing.T) {
	c := testCalculator(1, nil)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	boss := &models.Boss{Name: "First", Number: 1, HP: 270, MaxHP: 270, AttackPower: 17}
	for i := 0; i < 10; i++ {
		next := c.NextBoss(boss, "Successor", now)
		if next.MaxHP <= boss.MaxHP || next.AttackPower <= boss.AttackPower {
			t.Fatalf("chapter %d successor not strictly stronger: %+v vs %+v", boss.Number, next, boss)
		}
		boss = next
	}
}
