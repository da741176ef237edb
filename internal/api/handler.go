// Package api provides HTTP handlers for the EduBot API.
package api

import (
	"encoding/json"
	"net/http"
)

// maxRequestBodySize caps JSON request bodies (64KB).
const maxRequestBodySize = 64 << 10

// Response is the envelope returned by every API endpoint.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    interface{} `json:"user,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"success":false,"message":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Response{Success: false, Message: message})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}
