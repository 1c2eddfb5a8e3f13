package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Boss struct {
	bun.BaseModel `bun:"table:bosses,alias:b"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Name   string `bun:"name,notnull"`
	Number int    `bun:"number,notnull"` // chapter

	HP          int `bun:"hp,notnull"`
	MaxHP       int `bun:"max_hp,notnull"`
	AttackPower int `bun:"attack_power,notnull"`

	LastAttackDate     time.Time `bun:"last_attack_date,nullzero"`
	ChallengeStartDate time.Time `bun:"challenge_start_date,notnull"`

	Defeated  bool   `bun:"defeated,notnull,default:false"`
	Narrative string `bun:"narrative"`
	ImageURL  string `bun:"image_url"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
