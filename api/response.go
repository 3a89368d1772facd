package api

import (
	"encoding/json"
	"net/http"
)

// envelope is the success body: {"ok":true,"data":...,"cached":bool}.
type envelope struct {
	OK     bool            `json:"ok"`
	Data   json.RawMessage `json:"data"`
	Cached bool            `json:"cached"`
}

// errorEnvelope is the failure body. StatusCode repeats the HTTP status.
type errorEnvelope struct {
	OK         bool   `json:"ok"`
	Error      string `json:"error"`
	Cached     bool   `json:"cached"`
	StatusCode int    `json:"statusCode"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data json.RawMessage, cached bool) {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, envelope{OK: true, Data: data, Cached: cached})
}

// WriteError writes the failure envelope. It is exported for the middleware
// so that rejections (rate limit, auth, panics) share the API's error shape.
func WriteError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Error: msg, StatusCode: status})
}
