package webui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"forsinka.transitdata.no/internal/journey"
	"forsinka.transitdata.no/internal/logging"
	"forsinka.transitdata.no/internal/models"
)

//go:embed trains.html
var templateFS embed.FS

var trainsTemplate = template.Must(template.New("trains.html").Funcs(template.FuncMap{
	"clockTime":    formatClockTime,
	"optClockTime": formatOptClockTime,
	"delayMinutes": formatDelayMinutes,
}).ParseFS(templateFS, "trains.html"))

// Departure boards show local time.
var osloTime = loadOsloLocation()

func loadOsloLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		return time.UTC
	}
	return loc
}

func formatClockTime(t time.Time) string {
	return t.In(osloTime).Format("15:04")
}

func formatOptClockTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatClockTime(*t)
}

func formatDelayMinutes(seconds int) string {
	return fmt.Sprintf("%d min", seconds/60)
}

// trainsPage carries everything the overview template needs.
type trainsPage struct {
	Trains       []models.TrainJourney
	Timestamp    string
	DelayedCount int
	StuckCount   int
}

// trainsPageHandler renders the train overview, worst-first, with delayed
// and stuck counts in the header.
func (webUI *WebUI) trainsPageHandler(w http.ResponseWriter, r *http.Request) {
	now := webUI.Clock.Now()

	journeys := webUI.Journeys.ByMode(journey.TrainDataSources...)
	views := make([]models.TrainJourney, 0, len(journeys))
	for _, j := range journeys {
		views = append(views, models.NewTrainJourney(j, now))
	}
	models.SortTrainJourneys(views)

	page := trainsPage{
		Trains:    views,
		Timestamp: now.In(osloTime).Format("2006-01-02 15:04:05"),
	}
	for _, view := range views {
		if view.DelaySeconds > 60 {
			page.DelayedCount++
		}
		if view.PossiblyStuck {
			page.StuckCount++
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := trainsTemplate.Execute(w, page); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "unable to render trains page", err)
	}
}
