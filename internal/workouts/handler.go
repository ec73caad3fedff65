package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=workouts_mocks_test.go -package=workouts_test

type workoutsRepo interface {
	AddExercise(ctx context.Context, name string) (*Exercise, error)
	GetExercise(ctx context.Context, id int) (*Exercise, error)
	ListExercises(ctx context.Context) ([]Exercise, error)
	DeleteExercise(ctx context.Context, id int) error
	AddLog(ctx context.Context, wl WorkoutLog) (*WorkoutLog, error)
	GetLog(ctx context.Context, id int) (*WorkoutLog, error)
	UpdateLog(ctx context.Context, wl *WorkoutLog) error
	DeleteLog(ctx context.Context, id int) error
	ListLogs(ctx context.Context) ([]WorkoutLog, error)
	ListExerciseLogs(ctx context.Context, exerciseID int) ([]WorkoutLog, error)
	LastLog(ctx context.Context, exerciseID int) (*WorkoutLog, error)
}

type AddExerciseRequest struct {
	Name string `json:"name"`
}

// LogRequest is the body of create and update log requests.
// An empty date means today.
type LogRequest struct {
	ExerciseID int     `json:"exerciseId"`
	Date       string  `json:"date"`
	Sets       int     `json:"sets"`
	Reps       int     `json:"reps"`
	Weight     float64 `json:"weight"`
}

func (lr LogRequest) ToLog(now time.Time) (WorkoutLog, error) {
	date := Day(now)
	if lr.Date != "" {
		var err error
		if date, err = ParseDate(lr.Date); err != nil {
			return WorkoutLog{}, err
		}
	}
	wl := WorkoutLog{
		ExerciseID: lr.ExerciseID,
		Date:       date,
		Sets:       lr.Sets,
		Reps:       lr.Reps,
		Weight:     lr.Weight,
	}
	return wl, wl.Validate()
}

type DeleteResponse struct {
	DeletedID int `json:"deletedId"`
}

type UpdateResponse struct {
	UpdatedID int `json:"updatedId"`
}

type ListExercisesResponse struct {
	Exercises []Exercise `json:"exercises"`
	Total     int        `json:"total"`
}

type ListLogsResponse struct {
	Logs  []WorkoutLog `json:"logs"`
	Total int          `json:"total"`
}

type Handler struct {
	repo           workoutsRepo
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewHandler(repo workoutsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/exercises", handler.HandleListExercises).Methods("GET", "OPTIONS").Name("list-exercises")
	r.HandleFunc("/api/exercises", handler.HandleAddExercise).Methods("POST", "OPTIONS").Name("new-exercise")
	r.HandleFunc("/api/exercises/{id}", handler.HandleGetExercise).Methods("GET", "OPTIONS").Name("get-exercise")
	r.HandleFunc("/api/exercises/{id}", handler.HandleDeleteExercise).Methods("DELETE", "OPTIONS").Name("delete-exercise")
	r.HandleFunc("/api/exercises/{id}/logs", handler.HandleExerciseLogs).Methods("GET", "OPTIONS").Name("exercise-logs")
	r.HandleFunc("/api/exercises/{id}/logs/last", handler.HandlePrefill).Methods("GET", "OPTIONS").Name("exercise-prefill")
	r.HandleFunc("/api/logs", handler.HandleListLogs).Methods("GET", "OPTIONS").Name("list-logs")
	r.HandleFunc("/api/logs", handler.HandleAddLog).Methods("POST", "OPTIONS").Name("new-log")
	r.HandleFunc("/api/logs/{id}", handler.HandleGetLog).Methods("GET", "OPTIONS").Name("get-log")
	r.HandleFunc("/api/logs/{id}", handler.HandleUpdateLog).Methods("PUT", "OPTIONS").Name("update-log")
	r.HandleFunc("/api/logs/{id}", handler.HandleDeleteLog).Methods("DELETE", "OPTIONS").Name("delete-log")
}

func (handler *Handler) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.exercises.list")
	defer span.End()

	exercises, err := handler.repo.ListExercises(ctx)
	if err != nil {
		log.Errorf("failed to list exercises: %s", err)
		http.Error(w, "failed to list exercises", http.StatusInternalServerError)
		return
	}

	writeJSON(w, ListExercisesResponse{
		Exercises: exercises,
		Total:     len(exercises),
	}, http.StatusOK)
}

func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.exercises.new")
	defer span.End()

	if !pkg.IsJSONRequest(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req AddExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new exercise, unmarshal json params: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}

	name, err := NormalizeExerciseName(req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	exercise, err := handler.repo.AddExercise(ctx, name)
	if err != nil {
		log.Errorf("failed to add new exercise [%s]: %s", name, err)
		http.Error(w, "error, failed to add new exercise", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterExercises.WithLabelValues("create").Inc()
	log.Debugf("new exercise added: %d [%s]", exercise.ID, exercise.Name)
	writeJSON(w, exercise, http.StatusCreated)
}

func (handler *Handler) HandleGetExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.exercises.get")
	defer span.End()

	id, ok := idFromPath(w, r)
	if !ok {
		return
	}

	exercise, err := handler.repo.GetExercise(ctx, id)
	if errors.Is(err, ErrExerciseNotFound) {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to get exercise %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, exercise, http.StatusOK)
}

func (handler *Handler) HandleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.exercises.delete")
	defer span.End()

	id, ok := idFromPath(w, r)
	if !ok {
		return
	}

	err := handler.repo.DeleteExercise(ctx, id)
	switch {
	case errors.Is(err, ErrExerciseNotFound):
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrExerciseInUse):
		http.Error(w, "exercise has logged workouts, delete them first", http.StatusConflict)
		return
	case err != nil:
		log.Errorf("failed to delete exercise %d: %s", id, err)
		http.Error(w, "exercise not deleted", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterExercises.WithLabelValues("delete").Inc()
	writeJSON(w, DeleteResponse{DeletedID: id}, http.StatusOK)
}

func (handler *Handler) HandleExerciseLogs(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.exercises.logs")
	defer span.End()

	id, ok := idFromPath(w, r)
	if !ok {
		return
	}

	if _, err := handler.repo.GetExercise(ctx, id); err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get exercise %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	logs, err := handler.repo.ListExerciseLogs(ctx, id)
	if err != nil {
		log.Errorf("failed to list logs of exercise %d: %s", id, err)
		http.Error(w, "failed to list logs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, ListLogsResponse{Logs: logs, Total: len(logs)}, http.StatusOK)
}

// HandlePrefill returns the values the log form starts with for an exercise.
func (handler *Handler) HandlePrefill(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.exercises.prefill")
	defer span.End()

	id, ok := idFromPath(w, r)
	if !ok {
		return
	}

	if _, err := handler.repo.GetExercise(ctx, id); err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get exercise %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	last, err := handler.repo.LastLog(ctx, id)
	if err != nil && !errors.Is(err, ErrLogNotFound) {
		log.Errorf("failed to get last log of exercise %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, PrefillFrom(id, last), http.StatusOK)
}

func (handler *Handler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.logs.list")
	defer span.End()

	logs, err := handler.repo.ListLogs(ctx)
	if err != nil {
		log.Errorf("failed to list workout logs: %s", err)
		http.Error(w, "failed to list logs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, ListLogsResponse{Logs: logs, Total: len(logs)}, http.StatusOK)
}

func (handler *Handler) HandleGetLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.logs.get")
	defer span.End()

	id, ok := idFromPath(w, r)
	if !ok {
		return
	}

	wl, err := handler.repo.GetLog(ctx, id)
	if errors.Is(err, ErrLogNotFound) {
		http.Error(w, "workout log not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to get workout log %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, wl, http.StatusOK)
}

func (handler *Handler) HandleAddLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.logs.new")
	defer span.End()

	wl, ok := handler.decodeLogRequest(w, r)
	if !ok {
		return
	}

	added, err := handler.repo.AddLog(ctx, wl)
	if errors.Is(err, ErrExerciseNotFound) {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to add workout log for exercise %d: %s", wl.ExerciseID, err)
		http.Error(w, "error, failed to add workout log", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutLogs.WithLabelValues("create").Inc()
	log.Debugf("workout logged: %d, exercise %d, %dx%d @ %.1f", added.ID, added.ExerciseID, added.Sets, added.Reps, added.Weight)
	writeJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleUpdateLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.logs.update")
	defer span.End()

	id, ok := idFromPath(w, r)
	if !ok {
		return
	}

	wl, ok := handler.decodeLogRequest(w, r)
	if !ok {
		return
	}
	wl.ID = id

	err := handler.repo.UpdateLog(ctx, &wl)
	switch {
	case errors.Is(err, ErrLogNotFound):
		http.Error(w, "workout log not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrExerciseNotFound):
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	case err != nil:
		log.Errorf("failed to update workout log %d: %s", id, err)
		http.Error(w, "workout log not updated", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutLogs.WithLabelValues("update").Inc()
	writeJSON(w, UpdateResponse{UpdatedID: id}, http.StatusOK)
}

func (handler *Handler) HandleDeleteLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.logs.delete")
	defer span.End()

	id, ok := idFromPath(w, r)
	if !ok {
		return
	}

	err := handler.repo.DeleteLog(ctx, id)
	if errors.Is(err, ErrLogNotFound) {
		http.Error(w, "workout log not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to delete workout log %d: %s", id, err)
		http.Error(w, "workout log not deleted", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutLogs.WithLabelValues("delete").Inc()
	writeJSON(w, DeleteResponse{DeletedID: id}, http.StatusOK)
}

func (handler *Handler) decodeLogRequest(w http.ResponseWriter, r *http.Request) (WorkoutLog, bool) {
	if !pkg.IsJSONRequest(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return WorkoutLog{}, false
	}

	var req LogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("workout log, unmarshal json params: %s", err)
		http.Error(w, "invalid workout log", http.StatusBadRequest)
		return WorkoutLog{}, false
	}

	wl, err := req.ToLog(handler.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return WorkoutLog{}, false
	}

	return wl, true
}

func idFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	resp, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to marshal response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resp, status)
}
