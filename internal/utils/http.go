package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// HttpJson writes value as JSON response with given status code.
func HttpJson(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("unable to write json response")
	}
}

// HttpError writes JSON error with optional details.
func HttpError(w http.ResponseWriter, status int, message string, details ...string) {
	body := map[string]string{
		"error": message,
	}

	if len(details) > 0 && details[0] != "" {
		body["details"] = details[0]
	}

	HttpJson(w, status, body)
}

// CorsHeaders allows any origin to read the response.
func CorsHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "*")
}
