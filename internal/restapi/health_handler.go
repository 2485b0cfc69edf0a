package restapi

import (
	"encoding/json"
	"net/http"
)

// healthHandler reports the sync counters of the refresh loop. The status
// flips to 503 once too many refresh attempts pass without a success, so a
// load balancer can rotate the instance out while it serves stale data.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := api.Journeys.Health()

	setJSONResponseType(&w)
	if !health.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(health)
}
