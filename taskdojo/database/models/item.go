package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

type Slot string

const (
	SlotWeapon    Slot = "weapon"
	SlotArmor     Slot = "armor"
	SlotAccessory Slot = "accessory"
)

// Stat boost keys used in Item.StatBoosts.
const (
	StatWisdom   = "wisdom"
	StatStrength = "strength"
	StatAgility  = "agility"
	StatVitality = "vitality"
	StatLuck     = "luck"
)

type Item struct {
	bun.BaseModel `bun:"table:items,alias:i"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Name      string `bun:"name,notnull"`
	Rarity    Rarity `bun:"rarity,notnull"`
	Slot      Slot   `bun:"slot,notnull"`
	Droppable bool   `bun:"droppable,notnull,default:true"`
	DropRate  int    `bun:"drop_rate,notnull,default:10"`
	Price     int    `bun:"price,notnull,default:0"`

	StatBoosts map[string]int `bun:"stat_boosts,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type InventoryEntry struct {
	bun.BaseModel `bun:"table:inventory,alias:inv"`

	ID       int64 `bun:"id,pk,autoincrement"`
	PlayerID int64 `bun:"player_id,notnull"`
	ItemID   int64 `bun:"item_id,notnull"`
	Quantity int   `bun:"quantity,notnull,default:1"`
	Equipped bool  `bun:"equipped,notnull,default:false"`

	Item *Item `bun:"rel:belongs-to,join:item_id=id"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
