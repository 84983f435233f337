package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Shubhankar4862/weather/internal/observability"
)

// NewRouter assembles both route surfaces over the shared handler. The REST
// surface speaks JSON bodies and HTTP verbs; the legacy surface is GET-only
// with path parameters. Both delegate to the same core service.
func NewRouter(handler *Handler, logger *zap.Logger, limiter *rate.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/health", handler.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler())

	api := router.PathPrefix("/api").Subrouter()
	api.Use(RateLimitMiddleware(limiter))
	api.Use(TimeoutMiddleware(requestTimeout))
	api.HandleFunc("/users", handler.CreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{username}/locations", handler.ListLocations).Methods(http.MethodGet)
	api.HandleFunc("/users/{username}/locations", handler.AddLocation).Methods(http.MethodPost)
	api.HandleFunc("/users/{username}/locations/{id}", handler.UpdateLocation).Methods(http.MethodPut)
	api.HandleFunc("/users/{username}/locations/{id}", handler.DeleteLocation).Methods(http.MethodDelete)
	api.HandleFunc("/users/{username}/weather", handler.GetWeather).Methods(http.MethodGet)

	legacy := router.PathPrefix("/legacy").Subrouter()
	legacy.Use(RateLimitMiddleware(limiter))
	legacy.Use(TimeoutMiddleware(requestTimeout))
	legacy.HandleFunc("/register/{username}", handler.LegacyRegister).Methods(http.MethodGet)
	legacy.HandleFunc("/{username}/locations", handler.LegacyListLocations).Methods(http.MethodGet)
	legacy.HandleFunc("/{username}/add/{zip}", handler.LegacyAddZip).Methods(http.MethodGet)
	legacy.HandleFunc("/{username}/addcoords/{lat}/{lon}", handler.LegacyAddCoords).Methods(http.MethodGet)
	legacy.HandleFunc("/{username}/update/{id}/{zip}", handler.LegacyUpdateZip).Methods(http.MethodGet)
	legacy.HandleFunc("/{username}/updatecoords/{id}/{lat}/{lon}", handler.LegacyUpdateCoords).Methods(http.MethodGet)
	legacy.HandleFunc("/{username}/delete/{id}", handler.LegacyDelete).Methods(http.MethodGet)
	legacy.HandleFunc("/{username}/weather", handler.LegacyWeather).Methods(http.MethodGet)

	return router
}
