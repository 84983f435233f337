package validation

import (
	"errors"
	"strings"

	"github.com/Shubhankar4862/weather/internal/models"
)

// MaxLocationsPerUser is the cap on stored locations per user.
const MaxLocationsPerUser = 5

// ErrInvalidLocationShape is returned when a payload has neither a zip nor a
// complete lat/lon pair, or mixes both modes.
var ErrInvalidLocationShape = errors.New("location requires either a zip code or a complete lat/lon pair, not both")

// ErrLocationLimitExceeded is returned when a user already owns the maximum
// number of locations. Checked on create only, never on update.
var ErrLocationLimitExceeded = errors.New("location limit reached")

// ValidatePayload decides whether a candidate location payload is acceptable
// for a user who currently owns existingCount locations. Pure decision
// function: no side effects, the count is supplied by the caller.
//
// The returned payload is normalized: blank zips become nil, and exactly one
// mode is populated. Coordinate presence is a nil check, so lat=0 or lon=0
// count as present.
func ValidatePayload(p models.LocationPayload, existingCount int64, creating bool) (models.LocationPayload, error) {
	p = normalize(p)

	hasZip := p.Zip != nil
	hasAnyCoord := p.Lat != nil || p.Lon != nil
	hasPair := p.Lat != nil && p.Lon != nil

	switch {
	case hasZip && hasAnyCoord:
		return p, ErrInvalidLocationShape
	case !hasZip && !hasPair:
		return p, ErrInvalidLocationShape
	}

	if creating && existingCount >= MaxLocationsPerUser {
		return p, ErrLocationLimitExceeded
	}
	return p, nil
}

// normalize maps "provided as empty" to "not provided" so downstream code
// never has to distinguish the two.
func normalize(p models.LocationPayload) models.LocationPayload {
	if p.Zip != nil {
		z := strings.TrimSpace(*p.Zip)
		if z == "" {
			p.Zip = nil
		} else {
			p.Zip = &z
		}
	}
	return p
}
