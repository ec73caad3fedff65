package progression

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/internal/workouts"
	"github.com/2beens/liftlog/pkg"
)

type ListResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
	Params          Params           `json:"params"`
}

type Handler struct {
	advisor  *Advisor
	defaults Params
}

func NewHandler(advisor *Advisor, defaults Params) *Handler {
	return &Handler{
		advisor:  advisor,
		defaults: defaults,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/recommendations", handler.HandleList).Methods("GET", "OPTIONS").Name("list-recommendations")
	r.HandleFunc("/api/exercises/{id}/recommendation", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-recommendation")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.list")
	defer span.End()

	params, err := ParamsFromQuery(r.URL.Query(), handler.defaults)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recommendations, err := handler.advisor.All(ctx, params)
	if err != nil {
		log.Errorf("failed to compute recommendations: %s", err)
		http.Error(w, "failed to compute recommendations", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListResponse{
		Recommendations: recommendations,
		Params:          params,
	})
	if err != nil {
		log.Errorf("failed to marshal recommendations: %s", err)
		http.Error(w, "failed to marshal recommendations", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(respJson))
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.get")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	params, err := ParamsFromQuery(r.URL.Query(), handler.defaults)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := handler.advisor.ForExercise(ctx, id, params)
	if errors.Is(err, workouts.ErrExerciseNotFound) {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to compute recommendation for exercise %d: %s", id, err)
		http.Error(w, "failed to compute recommendation", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(rec)
	if err != nil {
		log.Errorf("failed to marshal recommendation: %s", err)
		http.Error(w, "failed to marshal recommendation", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(respJson))
}
