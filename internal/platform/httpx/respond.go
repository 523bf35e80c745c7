// Package httpx provides the JSON response envelope shared by all handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response shape consumed by the desktop shell.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PagedEnvelope extends Envelope with pagination metadata for list reads.
type PagedEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	Error   string `json:"error,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a successful envelope.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created sends a successful envelope with 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paged sends a successful paged envelope.
func Paged(w http.ResponseWriter, data any, total, page, limit int) {
	JSON(w, http.StatusOK, PagedEnvelope{Success: true, Data: data, Total: total, Page: page, Limit: limit})
}

// Fail sends a failure envelope with the given status.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Error: message})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
