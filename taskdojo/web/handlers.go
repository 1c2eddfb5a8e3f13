package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
	"github.com/taskdojo-app/taskdojo/taskdojo/services"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.app.Version,
		"commit":  s.app.Commit,
	})
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := mux.Vars(r)[key]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return id, nil
}

func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string     `json:"name"`
		Job  models.Job `json:"job"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}
	if body.Job == "" {
		body.Job = models.JobNovice
	}

	player := &models.Player{
		Name:  body.Name,
		Level: 1, HP: 100, MaxHP: 100,
		Wisdom: 5, Strength: 5, Agility: 5, Vitality: 5, Luck: 5,
		Job: body.Job, JobLevel: 1,
	}
	if err := s.app.PlayerRepository.Create(r.Context(), player); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	player, err := s.app.PlayerRepository.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind := models.TaskKind(r.URL.Query().Get("kind")) // empty matches all
	tasks, err := s.app.TaskRepository.ListActive(r.Context(), id, kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlayerID      int64             `json:"player_id"`
		Kind          models.TaskKind   `json:"kind"`
		Title         string            `json:"title"`
		Genre         string            `json:"genre"`
		Difficulty    models.Difficulty `json:"difficulty"`
		Deadline      time.Time         `json:"deadline"`
		LinkedHabitID string            `json:"linked_habit_id"`
		LinkedGoalID  string            `json:"linked_goal_id"`
		IntervalDays  int               `json:"interval_days"`
		TargetDate    time.Time         `json:"target_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.PlayerID <= 0 || body.Title == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("player_id and title are required"))
		return
	}

	task, warnings, err := s.app.Tasks.Create(r.Context(), services.CreateTaskInput{
		PlayerID:      body.PlayerID,
		Kind:          body.Kind,
		Title:         body.Title,
		Genre:         body.Genre,
		Difficulty:    body.Difficulty,
		Deadline:      body.Deadline,
		LinkedHabitID: body.LinkedHabitID,
		LinkedGoalID:  body.LinkedGoalID,
		IntervalDays:  body.IntervalDays,
		TargetDate:    body.TargetDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"task": task, "warnings": warnings})
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Report string `json:"report"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	result, err := s.app.Tasks.Complete(r.Context(), mux.Vars(r)["id"], body.Report)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.app.Tasks.Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	result, err := s.app.Tasks.CheckInHabit(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	result, err := s.app.Tasks.CompleteGoal(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	completed, total, err := s.app.Tasks.GoalProgress(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"completed": completed, "total": total})
}

func (s *Server) handleGetBoss(w http.ResponseWriter, r *http.Request) {
	boss, err := s.app.Boss.EnsureCurrent(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boss)
}

func (s *Server) handleAttack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.app.Boss.Attack(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := s.app.Shop.Inventory(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inventory": entries})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.ItemRepository.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := s.app.Shop.Buy(r.Context(), playerID, itemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleEquip(w http.ResponseWriter, r *http.Request) {
	s.handleEquipChange(w, r, s.app.Shop.Equip)
}

func (s *Server) handleUnequip(w http.ResponseWriter, r *http.Request) {
	s.handleEquipChange(w, r, s.app.Shop.Unequip)
}

func (s *Server) handleEquipChange(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, playerID, entryID int64) error) {
	playerID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entryID, err := pathID(r, "entryId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := op(r.Context(), playerID, entryID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDropStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	stats, err := s.app.DropRepository.Stats(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	recent, err := s.app.DropRepository.Recent(r.Context(), id, 10)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats, "recent": recent})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.app.Orchestrator.Status(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleRunDaily(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Orchestrator.RunDaily(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ran"})
}

func (s *Server) handleRunHourly(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Orchestrator.RunHourly(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ran"})
}
