package restapi

import (
	"net/http"
	"strconv"
)

const (
	defaultNearRadiusMeters = 500.0
	maxNearRadiusMeters     = 10000.0
)

// stopNamesHandler returns the distinct stop names of the catalog, sorted.
func (api *RestAPI) stopNamesHandler(w http.ResponseWriter, r *http.Request) {
	api.sendJSON(w, r, api.Journeys.Catalog().Names())
}

// stopsNearHandler returns the stops within a radius of a coordinate,
// closest first. Quays without coordinates are never returned.
func (api *RestAPI) stopsNearHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, err := strconv.ParseFloat(query.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		api.sendError(w, r, http.StatusBadRequest, "lat must be a latitude in decimal degrees")
		return
	}

	lon, err := strconv.ParseFloat(query.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		api.sendError(w, r, http.StatusBadRequest, "lon must be a longitude in decimal degrees")
		return
	}

	radius := defaultNearRadiusMeters
	if raw := query.Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			api.sendError(w, r, http.StatusBadRequest, "radius must be a positive number of meters")
			return
		}
		if radius > maxNearRadiusMeters {
			radius = maxNearRadiusMeters
		}
	}

	api.sendJSON(w, r, api.Journeys.Catalog().Near(lat, lon, radius))
}
