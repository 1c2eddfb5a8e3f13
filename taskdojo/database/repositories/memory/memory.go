// Package memory provides in-memory repository implementations for tests.
// They honor the same contracts as the SQL repositories, including
// NotFoundError on missing rows.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
	"github.com/taskdojo-app/taskdojo/taskdojo/database/repositories"
)

type PlayerRepository struct {
	mu      sync.Mutex
	seq     int64
	Players map[int64]*models.Player
	Usage   map[int64]int // API calls recorded per player
}

var _ repositories.PlayerRepository = (*PlayerRepository)(nil)

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{
		Players: make(map[int64]*models.Player),
		Usage:   make(map[int64]int),
	}
}

func (r *PlayerRepository) GetByID(_ context.Context, id int64) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Players[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "player", ID: id}
	}
	return p, nil
}

func (r *PlayerRepository) GetActive(_ context.Context) ([]*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Player
	for _, p := range r.Players {
		if !p.Suspended {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PlayerRepository) Create(_ context.Context, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if player.ID == 0 {
		r.seq++
		player.ID = r.seq
	}
	r.Players[player.ID] = player
	return nil
}

func (r *PlayerRepository) Update(_ context.Context, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Players[player.ID]; !ok {
		return &repositories.NotFoundError{Entity: "player", ID: player.ID}
	}
	r.Players[player.ID] = player
	return nil
}

func (r *PlayerRepository) UpdateFields(_ context.Context, id int64, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Players[id]; !ok {
		return &repositories.NotFoundError{Entity: "player", ID: id}
	}
	return nil
}

func (r *PlayerRepository) RecordUsage(_ context.Context, id int64, calls int, costUSD float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Players[id]
	if !ok {
		return &repositories.NotFoundError{Entity: "player", ID: id}
	}
	p.APICalls += calls
	p.APICostUSD += costUSD
	r.Usage[id] += calls
	return nil
}

type TaskRepository struct {
	mu    sync.Mutex
	Tasks map[string]*models.Task
}

var _ repositories.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{Tasks: make(map[string]*models.Task)}
}

func (r *TaskRepository) GetByID(_ context.Context, id string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.Tasks[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "task", ID: id}
	}
	return t, nil
}

func (r *TaskRepository) Create(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	r.Tasks[task.ID] = task
	return nil
}

func (r *TaskRepository) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Tasks[task.ID]; !ok {
		return &repositories.NotFoundError{Entity: "task", ID: task.ID}
	}
	r.Tasks[task.ID] = task
	return nil
}

func (r *TaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Tasks, id)
	return nil
}

func (r *TaskRepository) ListActive(_ context.Context, playerID int64, kind models.TaskKind) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Task
	for _, t := range r.Tasks {
		if t.PlayerID != playerID || t.Status != models.TaskStatusActive {
			continue
		}
		if kind != "" && t.Kind != kind {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *TaskRepository) CancelActiveDeadlines(_ context.Context, playerID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.Tasks {
		if t.PlayerID == playerID && t.Kind == models.TaskKindDeadline && t.Status == models.TaskStatusActive {
			t.Status = models.TaskStatusCancelled
			n++
		}
	}
	return n, nil
}

func (r *TaskRepository) LinkedDeadlineProgress(_ context.Context, goalID string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	completed, total := 0, 0
	for _, t := range r.Tasks {
		if t.LinkedGoalID != goalID {
			continue
		}
		total++
		if t.Status == models.TaskStatusCompleted {
			completed++
		}
	}
	return completed, total, nil
}

func (r *TaskRepository) HasActiveBossTrial(_ context.Context, playerID int64, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.Tasks {
		if t.PlayerID != playerID || t.Kind != models.TaskKindUrgent || !t.BossTrial {
			continue
		}
		if t.ExpiresAt.After(now) || t.CreatedAt.After(now.Add(-24*time.Hour)) {
			return true, nil
		}
	}
	return false, nil
}

type ItemRepository struct {
	mu        sync.Mutex
	seq       int64
	Items     map[int64]*models.Item
	Inventory map[int64]*models.InventoryEntry

	// AddToInventoryErr, when set, makes AddToInventory fail so callers can
	// exercise their delivery-failure branches.
	AddToInventoryErr error
}

var _ repositories.ItemRepository = (*ItemRepository)(nil)

func NewItemRepository() *ItemRepository {
	return &ItemRepository{
		Items:     make(map[int64]*models.Item),
		Inventory: make(map[int64]*models.InventoryEntry),
	}
}

func (r *ItemRepository) GetByID(_ context.Context, id int64) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.Items[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "item", ID: id}
	}
	return it, nil
}

func (r *ItemRepository) GetAll(_ context.Context) ([]*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Item
	for _, it := range r.Items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ItemRepository) GetDroppable(_ context.Context) ([]*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Item
	for _, it := range r.Items {
		if it.Droppable {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ItemRepository) Create(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == 0 {
		r.seq++
		item.ID = r.seq
	}
	r.Items[item.ID] = item
	return nil
}

func (r *ItemRepository) GetInventory(_ context.Context, playerID int64) ([]*models.InventoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.InventoryEntry
	for _, e := range r.Inventory {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ItemRepository) GetEquipped(_ context.Context, playerID int64) ([]*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Item
	for _, e := range r.Inventory {
		if e.PlayerID == playerID && e.Equipped && e.Item != nil {
			out = append(out, e.Item)
		}
	}
	return out, nil
}

func (r *ItemRepository) AddToInventory(_ context.Context, playerID, itemID int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.AddToInventoryErr != nil {
		return r.AddToInventoryErr
	}
	for _, e := range r.Inventory {
		if e.PlayerID == playerID && e.ItemID == itemID && !e.Equipped {
			e.Quantity += quantity
			return nil
		}
	}
	r.seq++
	r.Inventory[r.seq] = &models.InventoryEntry{
		ID:       r.seq,
		PlayerID: playerID,
		ItemID:   itemID,
		Quantity: quantity,
		Item:     r.Items[itemID],
	}
	return nil
}

func (r *ItemRepository) GetEntry(_ context.Context, entryID int64) (*models.InventoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.Inventory[entryID]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "inventory entry", ID: entryID}
	}
	return e, nil
}

func (r *ItemRepository) SetEquipped(_ context.Context, entryID int64, equipped bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.Inventory[entryID]
	if !ok {
		return &repositories.NotFoundError{Entity: "inventory entry", ID: entryID}
	}
	e.Equipped = equipped
	return nil
}

func (r *ItemRepository) UnequipSlot(_ context.Context, playerID int64, slot models.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Inventory {
		if e.PlayerID == playerID && e.Equipped && e.Item != nil && e.Item.Slot == slot {
			e.Equipped = false
		}
	}
	return nil
}

type DropRepository struct {
	mu      sync.Mutex
	Records []*models.DropRecord
}

var _ repositories.DropRepository = (*DropRepository)(nil)

func NewDropRepository() *DropRepository {
	return &DropRepository{}
}

func (r *DropRepository) Create(_ context.Context, record *models.DropRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Records = append(r.Records, record)
	return nil
}

func (r *DropRepository) Stats(_ context.Context, playerID int64) (*repositories.DropStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repositories.DropStats{ByRarity: make(map[models.Rarity]int)}
	for _, rec := range r.Records {
		if rec.PlayerID != playerID {
			continue
		}
		stats.Total++
		if rec.Bonus {
			stats.BonusRolls++
		}
		stats.ByRarity[rec.Rarity]++
	}
	return stats, nil
}

func (r *DropRepository) Recent(_ context.Context, playerID int64, limit int) ([]*models.DropRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.DropRecord
	for i := len(r.Records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.Records[i].PlayerID == playerID {
			out = append(out, r.Records[i])
		}
	}
	return out, nil
}

type BossRepository struct {
	mu     sync.Mutex
	seq    int64
	Bosses map[int64]*models.Boss
}

var _ repositories.BossRepository = (*BossRepository)(nil)

func NewBossRepository() *BossRepository {
	return &BossRepository{Bosses: make(map[int64]*models.Boss)}
}

func (r *BossRepository) GetCurrent(_ context.Context) (*models.Boss, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current *models.Boss
	for _, b := range r.Bosses {
		if b.Defeated {
			continue
		}
		if current == nil || b.Number > current.Number {
			current = b
		}
	}
	return current, nil
}

func (r *BossRepository) Create(_ context.Context, boss *models.Boss) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if boss.ID == 0 {
		r.seq++
		boss.ID = r.seq
	}
	r.Bosses[boss.ID] = boss
	return nil
}

func (r *BossRepository) Update(_ context.Context, boss *models.Boss) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Bosses[boss.ID]; !ok {
		return &repositories.NotFoundError{Entity: "boss", ID: boss.ID}
	}
	r.Bosses[boss.ID] = boss
	return nil
}

type ExecutionLogRepository struct {
	mu      sync.Mutex
	Entries []*models.ExecutionLog
}

var _ repositories.ExecutionLogRepository = (*ExecutionLogRepository)(nil)

func NewExecutionLogRepository() *ExecutionLogRepository {
	return &ExecutionLogRepository{}
}

func (r *ExecutionLogRepository) Append(_ context.Context, entry *models.ExecutionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.RanAt.IsZero() {
		entry.RanAt = time.Now()
	}
	entry.ID = int64(len(r.Entries) + 1)
	r.Entries = append(r.Entries, entry)
	return nil
}

func (r *ExecutionLogRepository) Latest(_ context.Context, jobType models.JobType, playerID int64) (*models.ExecutionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.Entries) - 1; i >= 0; i-- {
		e := r.Entries[i]
		if e.JobType == jobType && e.PlayerID == playerID {
			return e, nil
		}
	}
	return nil, nil
}
