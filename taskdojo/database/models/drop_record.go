package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DropRecord is an append-only fact about a single item drop. Rows are never
// updated; statistics read them as-is.
type DropRecord struct {
	bun.BaseModel `bun:"table:drop_records,alias:dr"`

	ID       string `bun:"id,pk"`
	PlayerID int64  `bun:"player_id,notnull"`
	ItemID   int64  `bun:"item_id,notnull"`
	TaskID   string `bun:"task_id"`
	Quantity int    `bun:"quantity,notnull,default:1"`
	Rarity   Rarity `bun:"rarity,notnull"`
	Bonus    bool   `bun:"bonus,notnull,default:false"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
