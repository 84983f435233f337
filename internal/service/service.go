package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Shubhankar4862/weather/internal/forecast"
	"github.com/Shubhankar4862/weather/internal/models"
	"github.com/Shubhankar4862/weather/internal/store"
	"github.com/Shubhankar4862/weather/internal/validation"
)

// ErrUsernameRequired is returned when a username is empty after trimming.
var ErrUsernameRequired = errors.New("username is required")

// LocationService is the single core behind every route surface: validation,
// the per-user location cap, ownership scoping, and forecast aggregation all
// live here so route adapters stay thin and stateless.
type LocationService struct {
	store      store.Store
	aggregator *forecast.Aggregator
}

// NewLocationService creates the service over the given store and aggregator.
func NewLocationService(st store.Store, aggregator *forecast.Aggregator) *LocationService {
	return &LocationService{store: st, aggregator: aggregator}
}

// loggerFromContext extracts a request-scoped zap.Logger if middleware put
// one there. Returns nil otherwise.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// RegisterUser creates the user if absent. Idempotent: registering an
// existing username is a no-op that returns the existing record.
func (s *LocationService) RegisterUser(ctx context.Context, username string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, ErrUsernameRequired
	}
	user, err := s.store.EnsureUser(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	if logger := loggerFromContext(ctx); logger != nil {
		logger.Debug("user ensured", zap.String("username", username), zap.Uint("user_id", user.ID))
	}
	return user, nil
}

// ListLocations returns the user's stored locations ordered by id.
func (s *LocationService) ListLocations(ctx context.Context, username string) ([]models.Location, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.store.ListLocations(ctx, user.ID)
}

// AddLocation validates the payload against the shape rules and the per-user
// cap, then stores it. The cap is enforced here, on creation only.
func (s *LocationService) AddLocation(ctx context.Context, username string, p models.LocationPayload) (models.Location, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return models.Location{}, err
	}
	count, err := s.store.CountLocations(ctx, user.ID)
	if err != nil {
		return models.Location{}, err
	}
	p, err = validation.ValidatePayload(p, count, true)
	if err != nil {
		return models.Location{}, err
	}
	return s.store.AddLocation(ctx, user.ID, p)
}

// UpdateLocation replaces a location's mode fields wholesale. Shape rules
// apply but the cap does not; ownership is enforced by the store lookup.
func (s *LocationService) UpdateLocation(ctx context.Context, username string, locationID uint, p models.LocationPayload) (models.Location, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return models.Location{}, err
	}
	p, err = validation.ValidatePayload(p, 0, false)
	if err != nil {
		return models.Location{}, err
	}
	return s.store.UpdateLocation(ctx, user.ID, locationID, p)
}

// DeleteLocation removes a location owned by the user.
func (s *LocationService) DeleteLocation(ctx context.Context, username string, locationID uint) error {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return err
	}
	return s.store.DeleteLocation(ctx, user.ID, locationID)
}

// GetForecasts reads the user's locations and aggregates one forecast per
// location. Locations are fully read before fan-out, so no store query is
// held open during the provider call phase. Per-location provider failures
// come back inline in the results, never as an error from this method.
func (s *LocationService) GetForecasts(ctx context.Context, username string) ([]models.ForecastResult, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	locations, err := s.store.ListLocations(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.aggregator.Aggregate(ctx, locations), nil
}
