package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Shubhankar4862/weather/internal/health"
	"github.com/Shubhankar4862/weather/internal/lifecycle"
	"github.com/Shubhankar4862/weather/internal/models"
	"github.com/Shubhankar4862/weather/internal/service"
	"github.com/Shubhankar4862/weather/internal/store"
	"github.com/Shubhankar4862/weather/internal/validation"
)

var validate = validator.New()

// HealthConfig holds dependency-check settings for the health handler.
type HealthConfig struct {
	ProviderWindow   time.Duration
	ProviderErrorPct int
	StartTime        time.Time
	// DBPing, when set, is called to check database reachability.
	DBPing func(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers. Both route surfaces call the
// same methods; neither carries its own validation or aggregation logic.
type Handler struct {
	locations        *service.LocationService
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(locations *service.LocationService, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	return &Handler{
		locations:    locations,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// createUserRequest is the REST body for user registration.
type createUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

// locationRequest is the REST body for add/update. Pointer fields keep
// "absent" distinct from zero; lat=0 and lon=0 are valid coordinates.
type locationRequest struct {
	Zip *string  `json:"zip" validate:"omitempty,min=1,max=32"`
	Lat *float64 `json:"lat" validate:"omitempty,latitude"`
	Lon *float64 `json:"lon" validate:"omitempty,longitude"`
}

func (r locationRequest) payload() models.LocationPayload {
	return models.LocationPayload{Zip: r.Zip, Lat: r.Lat, Lon: r.Lon}
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a username field")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_USERNAME", err.Error())
		return
	}
	user, err := h.locations.RegisterUser(r.Context(), req.Username)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// ListLocations handles GET /api/users/{username}/locations.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	locations, err := h.locations.ListLocations(r.Context(), username)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	if locations == nil {
		locations = []models.Location{}
	}
	writeJSON(w, http.StatusOK, locations)
}

// AddLocation handles POST /api/users/{username}/locations.
func (h *Handler) AddLocation(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}
	location, err := h.locations.AddLocation(r.Context(), username, req.payload())
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, location)
}

// UpdateLocation handles PUT /api/users/{username}/locations/{id}.
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	locationID, ok := parseLocationID(w, r)
	if !ok {
		return
	}
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}
	location, err := h.locations.UpdateLocation(r.Context(), username, locationID, req.payload())
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

// DeleteLocation handles DELETE /api/users/{username}/locations/{id}.
func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	locationID, ok := parseLocationID(w, r)
	if !ok {
		return
	}
	if err := h.locations.DeleteLocation(r.Context(), username, locationID); err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetWeather handles GET /api/users/{username}/weather. Per-location provider
// failures come back inline in the results; only unknown users or store
// failures reject the request.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	results, err := h.locations.GetForecasts(r.Context(), username)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	if results == nil {
		results = []models.ForecastResult{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username":  username,
		"forecasts": results,
	})
}

func parseLocationID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "location id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// writeCoreError maps core errors onto the wire. Caller errors surface with a
// descriptive reason; store failures stay opaque and get logged instead.
func (h *Handler) writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUsernameRequired):
		writeError(w, r, http.StatusBadRequest, "INVALID_USERNAME", err.Error())
	case errors.Is(err, validation.ErrInvalidLocationShape):
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
	case errors.Is(err, validation.ErrLocationLimitExceeded):
		writeError(w, r, http.StatusBadRequest, "LOCATION_LIMIT_EXCEEDED", err.Error())
	case errors.Is(err, store.ErrUserNotFound):
		writeError(w, r, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, store.ErrLocationNotFound):
		writeError(w, r, http.StatusNotFound, "LOCATION_NOT_FOUND", "location not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "STORE_UNAVAILABLE", "persistence temporarily unavailable")
		if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
			logger.Error("store error", zap.Error(err))
		}
	}
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result, checks := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "weather-locations",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > database unreachable > provider error rate breach > healthy.
func (h *Handler) computeHealthStatus(ctx context.Context) (healthResult, map[string]string) {
	checks := map[string]string{
		"database": "healthy",
		"provider": "healthy",
	}
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}, checks
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}, checks
	}
	if h.healthConfig.DBPing != nil {
		if err := h.healthConfig.DBPing(ctx); err != nil {
			checks["database"] = "unhealthy"
			return healthResult{"degraded", http.StatusServiceUnavailable, "database_unreachable"}, checks
		}
	}
	if h.healthConfig.ProviderWindow > 0 && h.healthConfig.ProviderErrorPct > 0 {
		errCount, total := health.ProviderErrorRate(h.healthConfig.ProviderWindow)
		if total > 0 {
			pct := float64(errCount) * 100 / float64(total)
			if pct >= float64(h.healthConfig.ProviderErrorPct) {
				checks["provider"] = "unhealthy"
				return healthResult{"degraded", http.StatusServiceUnavailable, "provider_error_rate"}, checks
			}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}, checks
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
