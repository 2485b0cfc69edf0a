package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"forsinka.transitdata.no/internal/logging"
	"forsinka.transitdata.no/internal/models"
)

func setJSONResponseType(w *http.ResponseWriter) {
	(*w).Header().Set("Content-Type", "application/json")
}

func (api *RestAPI) sendJSON(w http.ResponseWriter, r *http.Request, payload any) {
	setJSONResponseType(&w)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "unable to encode response", err,
			slog.String("path", r.URL.Path))
	}
}

func (api *RestAPI) sendError(w http.ResponseWriter, r *http.Request, code int, message string) {
	setJSONResponseType(&w)
	w.WriteHeader(code)

	response := models.ErrorResponse{
		Code: code,
		Text: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "unable to encode error response", err,
			slog.String("path", r.URL.Path))
	}
}
