package models

// ErrorResponse is the JSON body for non-2xx API responses.
type ErrorResponse struct {
	Code int    `json:"code"`
	Text string `json:"text"`
}
