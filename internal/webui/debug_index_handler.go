package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"forsinka.transitdata.no/internal/appconf"
	"forsinka.transitdata.no/internal/journey"
)

//go:embed debug_index.html
var debugTemplateFS embed.FS

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	content := spew.Sdump(data)
	w.Header().Set("Content-Type", "text/html")
	tmpl, err := template.ParseFS(debugTemplateFS, "debug_index.html")
	if err != nil {
		slog.Error("failed to parse debug template", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	dataStruct := debugData{
		Title: title,
		Pre:   content,
	}

	if err := tmpl.Execute(w, dataStruct); err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// debugIndexHandler dumps internal state for development. Hidden in
// production.
func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Config.Env == appconf.Production {
		http.NotFound(w, r)
		return
	}
	dataType := r.URL.Query().Get("dataType")

	var data interface{}
	var title string

	switch dataType {
	case "stops":
		data = webUI.Journeys.Catalog().Names()
		title = "Stop Catalog - Names"
	case "trains":
		data = webUI.Journeys.ByMode(journey.TrainDataSources...)
		title = "Journey Index - Trains"
	case "health":
		data = webUI.Journeys.Health()
		title = "Refresh Loop - Health"
	default:
		data = map[string]string{
			"error": "Please use one of the following: stops, trains, health.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
