package database

import (
	"context"
	"fmt"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
	"github.com/taskdojo-app/taskdojo/taskdojo/database/repositories"
)

// defaultItems is the starter catalog. Every rarity and slot appears at
// least once so a fresh database can run the drop engine immediately.
var defaultItems = []*models.Item{
	{Name: "Worn Training Sword", Rarity: models.RarityCommon, Slot: models.SlotWeapon, Droppable: true, DropRate: 14, Price: 40, StatBoosts: map[string]int{models.StatStrength: 1}},
	{Name: "Cracked Leather Vest", Rarity: models.RarityCommon, Slot: models.SlotArmor, Droppable: true, DropRate: 14, Price: 40, StatBoosts: map[string]int{models.StatVitality: 1}},
	{Name: "Chipped Lucky Coin", Rarity: models.RarityCommon, Slot: models.SlotAccessory, Droppable: true, DropRate: 12, Price: 35, StatBoosts: map[string]int{models.StatLuck: 1}},
	{Name: "Runner's Sandals", Rarity: models.RarityCommon, Slot: models.SlotAccessory, Droppable: true, DropRate: 12, Price: 35, StatBoosts: map[string]int{models.StatAgility: 1}},
	{Name: "Duelist's Saber", Rarity: models.RarityRare, Slot: models.SlotWeapon, Droppable: true, DropRate: 8, Price: 160, StatBoosts: map[string]int{models.StatStrength: 3, models.StatAgility: 1}},
	{Name: "Scholar's Circlet", Rarity: models.RarityRare, Slot: models.SlotAccessory, Droppable: true, DropRate: 8, Price: 150, StatBoosts: map[string]int{models.StatWisdom: 3}},
	{Name: "Ironwood Plate", Rarity: models.RarityRare, Slot: models.SlotArmor, Droppable: true, DropRate: 8, Price: 170, StatBoosts: map[string]int{models.StatVitality: 3}},
	{Name: "Stormcaller Blade", Rarity: models.RarityEpic, Slot: models.SlotWeapon, Droppable: true, DropRate: 4, Price: 520, StatBoosts: map[string]int{models.StatStrength: 5, models.StatAgility: 2}},
	{Name: "Wardens' Bulwark", Rarity: models.RarityEpic, Slot: models.SlotArmor, Droppable: true, DropRate: 4, Price: 540, StatBoosts: map[string]int{models.StatVitality: 5, models.StatLuck: 1}},
	{Name: "Gambler's Dice Charm", Rarity: models.RarityEpic, Slot: models.SlotAccessory, Droppable: true, DropRate: 3, Price: 500, StatBoosts: map[string]int{models.StatLuck: 5}},
	{Name: "Worldrender", Rarity: models.RarityLegendary, Slot: models.SlotWeapon, Droppable: true, DropRate: 1, Price: 2200, StatBoosts: map[string]int{models.StatStrength: 9, models.StatVitality: 3}},
	{Name: "Mantle of the First Dawn", Rarity: models.RarityLegendary, Slot: models.SlotArmor, Droppable: true, DropRate: 1, Price: 2400, StatBoosts: map[string]int{models.StatVitality: 8, models.StatWisdom: 4}},
}

// EnsureDefaultItems seeds the item catalog on an empty database. A
// non-empty catalog is left alone so operator edits survive restarts.
func EnsureDefaultItems(ctx context.Context, repo repositories.ItemRepository) error {
	existing, err := repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect item catalog: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, item := range defaultItems {
		if err := repo.Create(ctx, item); err != nil {
			return fmt.Errorf("failed to seed item %q: %w", item.Name, err)
		}
	}
	return nil
}
