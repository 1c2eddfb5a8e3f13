package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/taskdojo-app/taskdojo/taskdojo"
)

// Server exposes the operations API over HTTP. It is a thin layer: every
// handler validates input, calls one service method and renders the result.
type Server struct {
	app  *taskdojo.App
	http *http.Server
}

func NewServer(app *taskdojo.App, addr string) *Server {
	s := &Server{app: app}

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	s.routes(api)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      logRequests(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) routes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/players", s.handleCreatePlayer).Methods(http.MethodPost)
	r.HandleFunc("/players/{id}", s.handleGetPlayer).Methods(http.MethodGet)
	r.HandleFunc("/players/{id}/tasks", s.handleListTasks).Methods(http.MethodGet)
	r.HandleFunc("/players/{id}/inventory", s.handleInventory).Methods(http.MethodGet)
	r.HandleFunc("/players/{id}/drops", s.handleDropStats).Methods(http.MethodGet)
	r.HandleFunc("/players/{id}/buy/{itemId}", s.handleBuy).Methods(http.MethodPost)
	r.HandleFunc("/players/{id}/equip/{entryId}", s.handleEquip).Methods(http.MethodPost)
	r.HandleFunc("/players/{id}/unequip/{entryId}", s.handleUnequip).Methods(http.MethodPost)
	r.HandleFunc("/players/{id}/attack", s.handleAttack).Methods(http.MethodPost)

	r.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}/complete", s.handleCompleteTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}/cancel", s.handleCancelTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}/checkin", s.handleCheckIn).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}/achieve", s.handleCompleteGoal).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}/progress", s.handleGoalProgress).Methods(http.MethodGet)

	r.HandleFunc("/boss", s.handleGetBoss).Methods(http.MethodGet)

	r.HandleFunc("/jobs/status", s.handleJobStatus).Methods(http.MethodGet)
	r.HandleFunc("/jobs/daily", s.handleRunDaily).Methods(http.MethodPost)
	r.HandleFunc("/jobs/hourly", s.handleRunHourly).Methods(http.MethodPost)

	r.HandleFunc("/items", s.handleListItems).Methods(http.MethodGet)
}

func (s *Server) Start() error {
	slog.Info("HTTP server listening",
		slog.String("type", "sys"),
		slog.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		slog.Info("Request handled",
			slog.String("type", "sys"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.status),
			slog.Duration("took", time.Since(start)))
	})
}
