package repometa

import (
	"errors"
	"net/http"

	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	api            *Api
	metricsManager *metrics.Manager
}

func NewHandler(api *Api, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		api:            api,
		metricsManager: metricsManager,
	}
}

// SetupRoutes returns the /readme subrouter, so it can be rate limited on its own.
func (handler *Handler) SetupRoutes(r *mux.Router) *mux.Router {
	readmeRouter := r.PathPrefix("/readme").Subrouter()
	readmeRouter.HandleFunc("", handler.HandleReadme).Methods("GET", "OPTIONS").Name("readme")
	return readmeRouter
}

// HandleReadme responds with the generated markdown; failures are reported
// with the same "Error: ..." text and a matching status code.
func (handler *Handler) HandleReadme(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.repometa.readme")
	defer span.End()

	repoURL := r.URL.Query().Get("url")
	span.SetAttributes(attribute.String("repo.url", repoURL))
	if repoURL == "" {
		handler.metricsManager.CounterReadmeRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, "Error: url query param missing", http.StatusBadRequest)
		return
	}

	readme, err := handler.api.Fetch(ctx, repoURL)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		var statusErr *StatusError
		status := http.StatusBadGateway
		result := "upstream_error"
		switch {
		case errors.Is(err, ErrInvalidRepoURL):
			status = http.StatusBadRequest
			result = "bad_request"
		case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
			status = http.StatusNotFound
			result = "not_found"
		default:
			log.Errorf("generate readme for %s: %s", repoURL, err)
		}

		handler.metricsManager.CounterReadmeRequests.WithLabelValues(result).Inc()
		http.Error(w, ErrorText(err), status)
		return
	}

	handler.metricsManager.CounterReadmeRequests.WithLabelValues("ok").Inc()
	pkg.WriteResponse(w, pkg.ContentType.Markdown, readme, http.StatusOK)
}
