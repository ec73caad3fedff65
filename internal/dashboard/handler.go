package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/progression"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/internal/workouts"
	"github.com/2beens/liftlog/pkg"
)

const (
	chartWidth  = 720
	chartHeight = 320

	LevelSuccess = "success"
	LevelError   = "error"
	LevelWarning = "warning"
)

type recommender interface {
	All(ctx context.Context, params progression.Params) ([]progression.Recommendation, error)
}

// Handler serves the HTML dashboard. Every form posts to its own handler,
// which does one store call and redirects back to the index page.
type Handler struct {
	store        workouts.Store
	advisor      recommender
	loginChecker auth.Checker
	defaults     progression.Params
	templates    *Templates
	now          func() time.Time
}

func NewHandler(
	store workouts.Store,
	advisor recommender,
	loginChecker auth.Checker,
	defaults progression.Params,
) (*Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	return &Handler{
		store:        store,
		advisor:      advisor,
		loginChecker: loginChecker,
		defaults:     defaults,
		templates:    templates,
		now:          time.Now,
	}, nil
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/", handler.HandleIndex).Methods("GET").Name("dashboard")
	r.HandleFunc("/exercises", handler.HandleAddExercise).Methods("POST").Name("dashboard-new-exercise")
	r.HandleFunc("/exercises/{id}/delete", handler.HandleDeleteExercise).Methods("POST").Name("dashboard-delete-exercise")
	r.HandleFunc("/logs", handler.HandleAddLog).Methods("POST").Name("dashboard-new-log")
	r.HandleFunc("/logs/{id}", handler.HandleEditLog).Methods("POST").Name("dashboard-edit-log")
}

func (handler *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.index")
	defer span.End()

	q := r.URL.Query()
	data := PageData{
		Flash:       flashFromQuery(q),
		Today:       workouts.Day(handler.now()).Format(workouts.DateLayout),
		ParamLimits: paramLimits,
		LogLimits:   logLimits,
		LoggedIn:    handler.isLogged(ctx, r),
	}

	exercises, err := handler.store.ListExercises(ctx)
	if err != nil {
		handler.internalError(w, "list exercises", err)
		return
	}
	data.Exercises = exercises

	if data.Logs, err = handler.store.ListLogs(ctx); err != nil {
		handler.internalError(w, "list logs", err)
		return
	}

	data.SelectedExerciseID = pickExercise(exercises, q.Get("exercise"))
	if data.SelectedExerciseID > 0 {
		last, err := handler.store.LastLog(ctx, data.SelectedExerciseID)
		if err != nil && !errors.Is(err, workouts.ErrLogNotFound) {
			handler.internalError(w, "last log", err)
			return
		}
		data.Prefill = workouts.PrefillFrom(data.SelectedExerciseID, last)
	}

	if editParam := q.Get("edit"); editParam != "" {
		editID, convErr := strconv.Atoi(editParam)
		if convErr != nil {
			data.Warnings = append(data.Warnings, "Log ID not found")
		} else {
			data.Edit, err = handler.store.GetLog(ctx, editID)
			if errors.Is(err, workouts.ErrLogNotFound) {
				data.Warnings = append(data.Warnings, "Log ID not found")
			} else if err != nil {
				handler.internalError(w, "get log", err)
				return
			}
		}
	}

	data.ChartExerciseID = pickExercise(exercises, q.Get("chart"))
	if data.ChartExerciseID > 0 {
		chartLogs, err := handler.store.ListExerciseLogs(ctx, data.ChartExerciseID)
		if err != nil {
			handler.internalError(w, "list exercise logs", err)
			return
		}
		data.Chart, err = RenderChart(chartLogs, chartWidth, chartHeight)
		if err != nil {
			log.Errorf("dashboard, exercise %d: %s", data.ChartExerciseID, err)
			data.Warnings = append(data.Warnings, "Failed to render the progress chart.")
		} else if data.Chart == nil {
			data.ChartEmpty = fmt.Sprintf("No logs found for %s.", exerciseName(exercises, data.ChartExerciseID))
		}
	}

	params, err := progression.ParamsFromQuery(q, handler.defaults)
	if err != nil {
		data.Warnings = append(data.Warnings, err.Error()+"; using defaults")
	}
	data.Params = params

	recs, err := handler.advisor.All(ctx, params)
	if err != nil {
		handler.internalError(w, "recommendations", err)
		return
	}
	for _, rec := range recs {
		data.Recommendations = append(data.Recommendations, newRecommendationCard(rec))
	}

	var buf bytes.Buffer
	if err := handler.templates.Execute(&buf, data); err != nil {
		handler.internalError(w, "render dashboard", err)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.HTML, buf.Bytes(), http.StatusOK)
}

func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.exercise.add")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		redirect(w, r, LevelError, "Please provide an exercise name.", nil)
		return
	}

	raw := r.PostForm.Get("name")
	if strings.TrimSpace(raw) == "" {
		redirect(w, r, LevelError, "Please provide an exercise name.", nil)
		return
	}
	name, err := workouts.NormalizeExerciseName(raw)
	if err != nil {
		redirect(w, r, LevelError, err.Error(), nil)
		return
	}

	exercise, err := handler.store.AddExercise(ctx, name)
	if err != nil {
		log.Errorf("dashboard, add exercise: %s", err)
		redirect(w, r, LevelError, "Failed to add exercise.", nil)
		return
	}

	span.SetAttributes(attribute.Int("exercise.id", exercise.ID))
	redirect(w, r, LevelSuccess, "Exercise added successfully!", url.Values{"exercise": {strconv.Itoa(exercise.ID)}})
}

func (handler *Handler) HandleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.exercise.delete")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		redirect(w, r, LevelWarning, "Exercise not found.", nil)
		return
	}

	err = handler.store.DeleteExercise(ctx, id)
	switch {
	case err == nil:
		redirect(w, r, LevelSuccess, "Exercise deleted successfully!", nil)
	case errors.Is(err, workouts.ErrExerciseNotFound):
		redirect(w, r, LevelWarning, "Exercise not found.", nil)
	case errors.Is(err, workouts.ErrExerciseInUse):
		redirect(w, r, LevelWarning, "This exercise has logged workouts. Delete its logs first.", nil)
	default:
		log.Errorf("dashboard, delete exercise %d: %s", id, err)
		redirect(w, r, LevelError, "Failed to delete exercise.", nil)
	}
}

func (handler *Handler) HandleAddLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.log.add")
	defer span.End()

	wl, err := handler.logFromForm(r)
	if err != nil {
		redirect(w, r, LevelError, fillInAllFields(err), nil)
		return
	}

	back := url.Values{"exercise": {strconv.Itoa(wl.ExerciseID)}}
	if _, err := handler.store.AddLog(ctx, wl); err != nil {
		if errors.Is(err, workouts.ErrExerciseNotFound) {
			redirect(w, r, LevelWarning, "Exercise not found.", nil)
			return
		}
		log.Errorf("dashboard, add log: %s", err)
		redirect(w, r, LevelError, "Failed to log workout.", back)
		return
	}

	redirect(w, r, LevelSuccess, "Workout logged successfully!", back)
}

// HandleEditLog updates or deletes a log, depending on the form action.
func (handler *Handler) HandleEditLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.log.edit")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		redirect(w, r, LevelWarning, "Log ID not found", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		redirect(w, r, LevelError, "Please fill in all fields.", nil)
		return
	}

	action := r.PostForm.Get("action")
	span.SetAttributes(attribute.String("action", action))

	switch action {
	case "delete":
		err := handler.store.DeleteLog(ctx, id)
		switch {
		case err == nil:
			redirect(w, r, LevelSuccess, "Workout deleted successfully!", nil)
		case errors.Is(err, workouts.ErrLogNotFound):
			redirect(w, r, LevelWarning, "Log ID not found", nil)
		default:
			log.Errorf("dashboard, delete log %d: %s", id, err)
			redirect(w, r, LevelError, "Failed to delete workout.", nil)
		}
	case "edit":
		back := url.Values{"edit": {strconv.Itoa(id)}}
		wl, err := handler.logFromForm(r)
		if err != nil {
			redirect(w, r, LevelError, fillInAllFields(err), back)
			return
		}
		wl.ID = id

		err = handler.store.UpdateLog(ctx, &wl)
		switch {
		case err == nil:
			redirect(w, r, LevelSuccess, "Workout updated successfully!", nil)
		case errors.Is(err, workouts.ErrLogNotFound):
			redirect(w, r, LevelWarning, "Log ID not found", nil)
		case errors.Is(err, workouts.ErrExerciseNotFound):
			redirect(w, r, LevelWarning, "Exercise not found.", back)
		default:
			log.Errorf("dashboard, update log %d: %s", id, err)
			redirect(w, r, LevelError, "Failed to update workout.", back)
		}
	default:
		redirect(w, r, LevelError, "Unknown action.", nil)
	}
}

func (handler *Handler) logFromForm(r *http.Request) (workouts.WorkoutLog, error) {
	if err := r.ParseForm(); err != nil {
		return workouts.WorkoutLog{}, err
	}
	f := r.PostForm

	lr := workouts.LogRequest{Date: f.Get("date")}
	var err error
	if lr.ExerciseID, err = strconv.Atoi(f.Get("exercise_id")); err != nil {
		return workouts.WorkoutLog{}, &workouts.ValidationError{Field: "exercise", Message: "must be selected"}
	}
	if lr.Sets, err = strconv.Atoi(f.Get("sets")); err != nil {
		return workouts.WorkoutLog{}, &workouts.ValidationError{Field: "sets", Message: "not a number"}
	}
	if lr.Reps, err = strconv.Atoi(f.Get("reps")); err != nil {
		return workouts.WorkoutLog{}, &workouts.ValidationError{Field: "reps", Message: "not a number"}
	}
	if lr.Weight, err = strconv.ParseFloat(f.Get("weight"), 64); err != nil {
		return workouts.WorkoutLog{}, &workouts.ValidationError{Field: "weight", Message: "not a number"}
	}

	return lr.ToLog(handler.now())
}

func (handler *Handler) isLogged(ctx context.Context, r *http.Request) bool {
	token := auth.TokenFromRequest(r)
	if token == "" || handler.loginChecker == nil {
		return false
	}
	logged, err := handler.loginChecker.IsLogged(ctx, token)
	if err != nil {
		log.Debugf("dashboard, login check: %s", err)
		return false
	}
	return logged
}

func (handler *Handler) internalError(w http.ResponseWriter, what string, err error) {
	log.Errorf("dashboard, %s: %s", what, err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func fillInAllFields(err error) string {
	var vErr *workouts.ValidationError
	if errors.As(err, &vErr) {
		return fmt.Sprintf("Please fill in all fields. %s", vErr.Error())
	}
	return "Please fill in all fields."
}

// pickExercise returns the requested exercise id when it exists,
// else the first exercise, else 0.
func pickExercise(exercises []workouts.Exercise, param string) int {
	if len(exercises) == 0 {
		return 0
	}
	if id, err := strconv.Atoi(param); err == nil {
		for _, e := range exercises {
			if e.ID == id {
				return id
			}
		}
	}
	return exercises[0].ID
}

func exerciseName(exercises []workouts.Exercise, id int) string {
	for _, e := range exercises {
		if e.ID == id {
			return e.Name
		}
	}
	return ""
}

func flashFromQuery(q url.Values) *Flash {
	msg := q.Get("msg")
	if msg == "" {
		return nil
	}
	level := q.Get("level")
	switch level {
	case LevelSuccess, LevelError, LevelWarning:
	default:
		level = LevelWarning
	}
	return &Flash{Level: level, Message: msg}
}

// redirect sends the browser back to the index page with a flash message.
func redirect(w http.ResponseWriter, r *http.Request, level, msg string, extra url.Values) {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	q.Set("msg", msg)
	q.Set("level", level)
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}
