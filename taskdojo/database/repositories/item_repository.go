package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/uptrace/bun"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

const (
	itemCacheSize = 32
	itemCacheTTL  = 5 * time.Minute

	droppableCacheKey = "droppable"
)

type ItemRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	GetAll(ctx context.Context) ([]*models.Item, error)
	// GetDroppable returns the droppable pool; results are cached briefly
	// since the pool changes rarely and the drop engine reads it on every
	// completion.
	GetDroppable(ctx context.Context) ([]*models.Item, error)
	Create(ctx context.Context, item *models.Item) error

	GetInventory(ctx context.Context, playerID int64) ([]*models.InventoryEntry, error)
	GetEquipped(ctx context.Context, playerID int64) ([]*models.Item, error)
	AddToInventory(ctx context.Context, playerID, itemID int64, quantity int) error
	GetEntry(ctx context.Context, entryID int64) (*models.InventoryEntry, error)
	SetEquipped(ctx context.Context, entryID int64, equipped bool) error
	UnequipSlot(ctx context.Context, playerID int64, slot models.Slot) error
}

type cachedPool struct {
	items     []*models.Item
	fetchedAt time.Time
}

type itemRepository struct {
	*BaseRepository
	db    *bun.DB
	cache *lru.Cache
}

func NewItemRepository(db *bun.DB) ItemRepository {
	cache, _ := lru.New(itemCacheSize)
	return &itemRepository{BaseRepository: NewBaseRepository(db), db: db, cache: cache}
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var item models.Item
	err := r.db.NewSelect().
		Model(&item).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get", "item", id, err)
	}
	return &item, nil
}

func (r *itemRepository) GetAll(ctx context.Context) ([]*models.Item, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var items []*models.Item
	err := r.db.NewSelect().
		Model(&items).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "item", nil, err)
	}
	return items, nil
}

func (r *itemRepository) GetDroppable(ctx context.Context) ([]*models.Item, error) {
	if v, ok := r.cache.Get(droppableCacheKey); ok {
		pool := v.(cachedPool)
		if time.Since(pool.fetchedAt) < itemCacheTTL {
			return pool.items, nil
		}
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var items []*models.Item
	err := r.db.NewSelect().
		Model(&items).
		Where("droppable = true").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "item", nil, err)
	}
	r.cache.Add(droppableCacheKey, cachedPool{items: items, fetchedAt: time.Now()})
	return items, nil
}

func (r *itemRepository) Create(ctx context.Context, item *models.Item) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	item.CreatedAt = time.Now()
	_, err := r.db.NewInsert().Model(item).Exec(ctx)
	r.cache.Remove(droppableCacheKey)
	return r.HandleError("create", "item", item.ID, err)
}

func (r *itemRepository) GetInventory(ctx context.Context, playerID int64) ([]*models.InventoryEntry, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var entries []*models.InventoryEntry
	err := r.db.NewSelect().
		Model(&entries).
		Where("player_id = ?", playerID).
		Where("quantity > 0").
		Relation("Item").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "inventory", playerID, err)
	}
	return entries, nil
}

func (r *itemRepository) GetEquipped(ctx context.Context, playerID int64) ([]*models.Item, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var entries []*models.InventoryEntry
	err := r.db.NewSelect().
		Model(&entries).
		Where("player_id = ?", playerID).
		Where("equipped = true").
		Relation("Item").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "inventory", playerID, err)
	}

	items := make([]*models.Item, 0, len(entries))
	for _, e := range entries {
		if e.Item != nil {
			items = append(items, e.Item)
		}
	}
	return items, nil
}

// AddToInventory stacks onto an existing non-equipped row of the same item
// or creates a new one.
func (r *itemRepository) AddToInventory(ctx context.Context, playerID, itemID int64, quantity int) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var entry models.InventoryEntry
	err := r.db.NewSelect().
		Model(&entry).
		Where("player_id = ?", playerID).
		Where("item_id = ?", itemID).
		Where("equipped = false").
		Limit(1).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return r.HandleError("get", "inventory", itemID, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		now := time.Now()
		entry = models.InventoryEntry{
			PlayerID:  playerID,
			ItemID:    itemID,
			Quantity:  quantity,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err = r.db.NewInsert().Model(&entry).Exec(ctx)
		return r.HandleError("create", "inventory", itemID, err)
	}

	_, err = r.db.NewUpdate().
		Model((*models.InventoryEntry)(nil)).
		Where("id = ?", entry.ID).
		Set("quantity = quantity + ?", quantity).
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	return r.HandleError("update", "inventory", entry.ID, err)
}

func (r *itemRepository) GetEntry(ctx context.Context, entryID int64) (*models.InventoryEntry, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var entry models.InventoryEntry
	err := r.db.NewSelect().
		Model(&entry).
		Where("inv.id = ?", entryID).
		Relation("Item").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get", "inventory", entryID, err)
	}
	return &entry, nil
}

func (r *itemRepository) SetEquipped(ctx context.Context, entryID int64, equipped bool) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewUpdate().
		Model((*models.InventoryEntry)(nil)).
		Where("id = ?", entryID).
		Set("equipped = ?", equipped).
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	return r.HandleError("update", "inventory", entryID, err)
}

// UnequipSlot clears every equipped entry in a slot; equip is
// slot-exclusive.
func (r *itemRepository) UnequipSlot(ctx context.Context, playerID int64, slot models.Slot) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewUpdate().
		Model((*models.InventoryEntry)(nil)).
		Where("player_id = ?", playerID).
		Where("equipped = true").
		Where("item_id IN (SELECT id FROM items WHERE slot = ?)", slot).
		Set("equipped = false").
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	return r.HandleError("update", "inventory", playerID, err)
}
