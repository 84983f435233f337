package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Shubhankar4862/weather/internal/models"
)

// Legacy route surface: GET-only, everything in path parameters. Kept for
// clients written against the original path shape. Each handler is a thin
// adapter translating path parameters into the same LocationService calls the
// REST surface uses; no validation or aggregation logic lives here.

// LegacyRegister handles GET /legacy/register/{username}.
func (h *Handler) LegacyRegister(w http.ResponseWriter, r *http.Request) {
	user, err := h.locations.RegisterUser(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// LegacyListLocations handles GET /legacy/{username}/locations.
func (h *Handler) LegacyListLocations(w http.ResponseWriter, r *http.Request) {
	h.ListLocations(w, r)
}

// LegacyAddZip handles GET /legacy/{username}/add/{zip}.
func (h *Handler) LegacyAddZip(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	zip := vars["zip"]
	location, err := h.locations.AddLocation(r.Context(), vars["username"], models.LocationPayload{Zip: &zip})
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

// LegacyAddCoords handles GET /legacy/{username}/addcoords/{lat}/{lon}.
func (h *Handler) LegacyAddCoords(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	payload, ok := parseCoords(w, r, vars["lat"], vars["lon"])
	if !ok {
		return
	}
	location, err := h.locations.AddLocation(r.Context(), vars["username"], payload)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

// LegacyUpdateZip handles GET /legacy/{username}/update/{id}/{zip}.
func (h *Handler) LegacyUpdateZip(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	locationID, ok := parseLocationID(w, r)
	if !ok {
		return
	}
	zip := vars["zip"]
	location, err := h.locations.UpdateLocation(r.Context(), vars["username"], locationID, models.LocationPayload{Zip: &zip})
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

// LegacyUpdateCoords handles GET /legacy/{username}/updatecoords/{id}/{lat}/{lon}.
func (h *Handler) LegacyUpdateCoords(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	locationID, ok := parseLocationID(w, r)
	if !ok {
		return
	}
	payload, ok := parseCoords(w, r, vars["lat"], vars["lon"])
	if !ok {
		return
	}
	location, err := h.locations.UpdateLocation(r.Context(), vars["username"], locationID, payload)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

// LegacyDelete handles GET /legacy/{username}/delete/{id}.
func (h *Handler) LegacyDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	locationID, ok := parseLocationID(w, r)
	if !ok {
		return
	}
	if err := h.locations.DeleteLocation(r.Context(), vars["username"], locationID); err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// LegacyWeather handles GET /legacy/{username}/weather.
func (h *Handler) LegacyWeather(w http.ResponseWriter, r *http.Request) {
	h.GetWeather(w, r)
}

func parseCoords(w http.ResponseWriter, r *http.Request, latRaw, lonRaw string) (models.LocationPayload, bool) {
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", "lat must be a number")
		return models.LocationPayload{}, false
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", "lon must be a number")
		return models.LocationPayload{}, false
	}
	return models.LocationPayload{Lat: &lat, Lon: &lon}, true
}
