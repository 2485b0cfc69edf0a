package restapi

import (
	"net/http"

	"forsinka.transitdata.no/internal/journey"
	"forsinka.transitdata.no/internal/models"
)

// journeysForStopHandler returns the recorded delays of every journey that
// will still visit the named stop. An unknown stop yields an empty list, the
// same as a known stop nothing is heading towards.
func (api *RestAPI) journeysForStopHandler(w http.ResponseWriter, r *http.Request) {
	stopName := r.PathValue("stopName")

	journeys := api.Journeys.ByStop(stopName)
	views := make([]models.JourneyDelay, 0, len(journeys))
	for _, j := range journeys {
		views = append(views, models.NewJourneyDelay(j))
	}

	api.sendJSON(w, r, views)
}

// trainJourneysHandler returns every tracked train journey, worst-first.
func (api *RestAPI) trainJourneysHandler(w http.ResponseWriter, r *http.Request) {
	now := api.Clock.Now()

	journeys := api.Journeys.ByMode(journey.TrainDataSources...)
	views := make([]models.TrainJourney, 0, len(journeys))
	for _, j := range journeys {
		views = append(views, models.NewTrainJourney(j, now))
	}
	models.SortTrainJourneys(views)

	api.sendJSON(w, r, views)
}
