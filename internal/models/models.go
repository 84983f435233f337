package models

import "encoding/json"

// User is a registered owner of stored locations. Usernames are the natural
// key; creation is idempotent (see store.EnsureUser).
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`

	Locations []Location `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Location is a stored forecast target owned by exactly one user. Exactly one
// mode is set: Zip, or the Lat/Lon pair. Mode fields are pointers so that
// absence is explicit; a coordinate of 0 is a legitimate value, never a
// marker for "unset".
type Location struct {
	ID     uint     `gorm:"primaryKey" json:"id"`
	UserID uint     `gorm:"index;not null" json:"userId"`
	Zip    *string  `json:"zip,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
}

// LocationPayload carries candidate mode fields for an add or update.
// Validation normalizes it so that exactly one mode survives.
type LocationPayload struct {
	Zip *string
	Lat *float64
	Lon *float64
}

// ProviderForecast is the payload extracted from one successful provider
// response: a display name composed from the reported city/country, and the
// provider's forecast entries passed through opaquely.
type ProviderForecast struct {
	Place    string
	Forecast json.RawMessage
}

// ForecastResult is the per-location outcome of one aggregation pass. Either
// Place/Forecast are set (success) or Error carries the failure message; one
// location failing never affects its siblings.
type ForecastResult struct {
	Location Location        `json:"location"`
	Place    string          `json:"place,omitempty"`
	Forecast json.RawMessage `json:"forecast,omitempty"`
	Error    string          `json:"error,omitempty"`
}
