package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Job string

const (
	JobNovice   Job = "novice"
	JobWarrior  Job = "warrior"
	JobMerchant Job = "merchant"
	JobHunter   Job = "hunter"
	JobGambler  Job = "gambler"
)

type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Name  string `bun:"name,notnull"`
	Level int    `bun:"level,notnull,default:1"`
	Exp   int    `bun:"exp,notnull,default:0"`

	HP    int `bun:"hp,notnull,default:100"`
	MaxHP int `bun:"max_hp,notnull,default:100"`
	Coins int `bun:"coins,notnull,default:0"`

	// Attributes
	Wisdom   int `bun:"wisdom,notnull,default:5"`
	Strength int `bun:"strength,notnull,default:5"`
	Agility  int `bun:"agility,notnull,default:5"`
	Vitality int `bun:"vitality,notnull,default:5"`
	Luck     int `bun:"luck,notnull,default:5"`

	Job      Job `bun:"job,notnull,default:'novice'"`
	JobLevel int `bun:"job_level,notnull,default:1"`
	JobExp   int `bun:"job_exp,notnull,default:0"`

	Streak    int  `bun:"streak,notnull,default:0"`
	Suspended bool `bun:"suspended,notnull,default:false"`

	// Monthly AI usage accounting
	APICalls   int     `bun:"api_calls,notnull,default:0"`
	APICostUSD float64 `bun:"api_cost_usd,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// EffectiveStat returns a base attribute plus the boosts of the equipped
// items handed in by the caller.
func (p *Player) EffectiveStat(stat string, equipped []*Item) int {
	base := map[string]int{
		StatWisdom:   p.Wisdom,
		StatStrength: p.Strength,
		StatAgility:  p.Agility,
		StatVitality: p.Vitality,
		StatLuck:     p.Luck,
	}[stat]

	for _, it := range equipped {
		if it == nil {
			continue
		}
		base += it.StatBoosts[stat]
	}
	return base
}
