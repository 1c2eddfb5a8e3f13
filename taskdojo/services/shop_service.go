package services

import (
	"context"
	"fmt"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
	"github.com/taskdojo-app/taskdojo/taskdojo/database/repositories"
)

// ShopService handles item purchase and equipment management.
type ShopService struct {
	itemRepo   repositories.ItemRepository
	playerRepo repositories.PlayerRepository
}

func NewShopService(itemRepo repositories.ItemRepository, playerRepo repositories.PlayerRepository) *ShopService {
	return &ShopService{itemRepo: itemRepo, playerRepo: playerRepo}
}

// Buy deducts the price and adds the item to the player's inventory.
func (s *ShopService) Buy(ctx context.Context, playerID, itemID int64) (*models.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player.Coins < item.Price {
		return nil, ErrInsufficientCoins
	}

	player.Coins -= item.Price
	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to charge purchase: %w", err)
	}
	if err := s.itemRepo.AddToInventory(ctx, playerID, itemID, 1); err != nil {
		// Refund the charge so a failed delivery leaves the player whole.
		player.Coins += item.Price
		if refundErr := s.playerRepo.Update(ctx, player); refundErr != nil {
			return nil, fmt.Errorf("failed to deliver purchase (refund failed: %v): %w", refundErr, err)
		}
		return nil, fmt.Errorf("failed to deliver purchase: %w", err)
	}
	return item, nil
}

// Equip makes an inventory entry the equipped item of its slot, unequipping
// whatever held the slot before.
func (s *ShopService) Equip(ctx context.Context, playerID, entryID int64) error {
	entry, err := s.itemRepo.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.PlayerID != playerID {
		return ErrNotOwned
	}
	if entry.Item == nil || entry.Item.Slot == "" {
		return ErrNotEquippable
	}

	if err := s.itemRepo.UnequipSlot(ctx, playerID, entry.Item.Slot); err != nil {
		return fmt.Errorf("failed to clear slot %s: %w", entry.Item.Slot, err)
	}
	return s.itemRepo.SetEquipped(ctx, entryID, true)
}

func (s *ShopService) Unequip(ctx context.Context, playerID, entryID int64) error {
	entry, err := s.itemRepo.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.PlayerID != playerID {
		return ErrNotOwned
	}
	return s.itemRepo.SetEquipped(ctx, entryID, false)
}

func (s *ShopService) Inventory(ctx context.Context, playerID int64) ([]*models.InventoryEntry, error) {
	return s.itemRepo.GetInventory(ctx, playerID)
}
