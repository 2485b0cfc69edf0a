package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forsinka.transitdata.no/internal/models"
)

func serveRequest(t *testing.T, api *RestAPI, target string) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	api.SetRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestJourneysForStopHandler(t *testing.T) {
	api := createTestApi(t, testEntry())

	rec := serveRequest(t, api, "/stop/Lillestr%C3%B8m")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var views []models.JourneyDelay
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)

	view := views[0]
	assert.Equal(t, "VYG:ServiceJourney:J1", view.VehicleJourneyID)
	assert.Equal(t, "Oslo S", view.LastStopName)
	assert.Equal(t, 120, view.RecordedDelaySeconds)
	require.NotNil(t, view.NextStopName)
	assert.Equal(t, "Lillestrøm", *view.NextStopName)
}

func TestJourneysForStopHandler_UnknownStopIsEmptyList(t *testing.T) {
	api := createTestApi(t, testEntry())

	rec := serveRequest(t, api, "/stop/Atlantis")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestJourneysForStopHandler_PassedStopIsEmptyList(t *testing.T) {
	api := createTestApi(t, testEntry())

	// The vehicle already departed Oslo S, so nothing is heading there.
	rec := serveRequest(t, api, "/stop/Oslo%20S")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestTrainJourneysHandler(t *testing.T) {
	train := testEntry()
	bus := testEntry()
	bus.DatedVehicleJourneyRef = strValue("RUT:ServiceJourney:B1")
	bus.DataSource = "RUT"

	api := createTestApi(t, train, bus)

	rec := serveRequest(t, api, "/trains")

	require.Equal(t, http.StatusOK, rec.Code)

	var views []models.TrainJourney
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "VYG", views[0].DataSource)
	assert.Equal(t, 120, views[0].DelaySeconds)
	assert.True(t, views[0].Departed)
	assert.False(t, views[0].PossiblyStuck)
}

func TestTrainJourneysHandler_WorstFirstOrdering(t *testing.T) {
	punctual := testEntry()

	late := testEntry()
	late.DatedVehicleJourneyRef = strValue("VYG:ServiceJourney:J2")
	late.RecordedCalls.RecordedCall[0].ActualDepartureTime = timePtr(
		time.Date(2024, 6, 15, 10, 10, 0, 0, time.UTC))

	api := createTestApi(t, punctual, late)

	rec := serveRequest(t, api, "/trains")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []models.TrainJourney
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "VYG:ServiceJourney:J2", views[0].VehicleJourneyID)
	assert.Equal(t, "VYG:ServiceJourney:J1", views[1].VehicleJourneyID)
}

func TestTrainJourneysHandler_EmptyIndex(t *testing.T) {
	api := createTestApi(t)

	rec := serveRequest(t, api, "/trains")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRootRedirectsToTrainsPage(t *testing.T) {
	api := createTestApi(t)

	rec := serveRequest(t, api, "/")

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/trains.html", rec.Header().Get("Location"))
}

func TestRealtimeEndpointsSetCacheControl(t *testing.T) {
	api := createTestApi(t, testEntry())

	rec := serveRequest(t, api, "/trains")
	assert.Equal(t, "public, max-age=10", rec.Header().Get("Cache-Control"))

	rec = serveRequest(t, api, "/stops")
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))

	rec = serveRequest(t, api, "/healthy")
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
}
