package store

import (
	"context"
	"errors"

	"github.com/Shubhankar4862/weather/internal/models"
)

// ErrUserNotFound is returned when a username has no matching user record.
var ErrUserNotFound = errors.New("user not found")

// ErrLocationNotFound is returned when a location id does not exist or is not
// owned by the given user. Ownership is part of the lookup key so one user can
// never mutate another user's locations.
var ErrLocationNotFound = errors.New("location not found")

// ErrStoreUnavailable wraps connectivity and other transient persistence
// failures. Fatal for the request, never for the process.
var ErrStoreUnavailable = errors.New("store unavailable")

// Store is the persistence contract for users and their locations. All
// location operations are scoped to the owning user. Callers are expected to
// have run validation before AddLocation/UpdateLocation.
type Store interface {
	// EnsureUser creates the user if absent, or returns the existing record.
	// Calling it twice with the same username yields exactly one record.
	EnsureUser(ctx context.Context, username string) (models.User, error)

	// GetUser fetches a user by username. Returns ErrUserNotFound when absent.
	GetUser(ctx context.Context, username string) (models.User, error)

	// CountLocations returns how many locations the user currently owns.
	CountLocations(ctx context.Context, userID uint) (int64, error)

	// ListLocations returns the user's locations ordered by id.
	ListLocations(ctx context.Context, userID uint) ([]models.Location, error)

	// AddLocation stores a new location for the user.
	AddLocation(ctx context.Context, userID uint, p models.LocationPayload) (models.Location, error)

	// UpdateLocation replaces the mode fields wholesale: switching from zip to
	// coordinates (or back) clears the other mode's fields. Returns
	// ErrLocationNotFound when the id does not exist under this user.
	UpdateLocation(ctx context.Context, userID, locationID uint, p models.LocationPayload) (models.Location, error)

	// DeleteLocation removes a location owned by the user. Returns
	// ErrLocationNotFound when the id does not exist under this user.
	DeleteLocation(ctx context.Context, userID, locationID uint) error
}
