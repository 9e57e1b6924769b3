// Package response writes the API's JSON envelope. Every body is
// {success, data?, error?} and success always mirrors the status class.
package response

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: true, Data: data})
}

func fail(w http.ResponseWriter, status int, message any) {
	write(w, status, envelope{Success: false, Error: message})
}

// OK sends a 200 response with data
func OK(w http.ResponseWriter, data any) {
	ok(w, http.StatusOK, data)
}

// Created sends a 201 response with data
func Created(w http.ResponseWriter, data any) {
	ok(w, http.StatusCreated, data)
}

// NoContent sends a bare 204
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// BadRequest sends a 400 error response
func BadRequest(w http.ResponseWriter, message any) {
	fail(w, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error response
func Unauthorized(w http.ResponseWriter, message any) {
	fail(w, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 error response
func Forbidden(w http.ResponseWriter, message any) {
	fail(w, http.StatusForbidden, message)
}

// NotFound sends a 404 error response
func NotFound(w http.ResponseWriter, message any) {
	fail(w, http.StatusNotFound, message)
}

// Conflict sends a 409 error response
func Conflict(w http.ResponseWriter, message any) {
	fail(w, http.StatusConflict, message)
}

// TooManyRequests sends a 429 error response
func TooManyRequests(w http.ResponseWriter, message any) {
	fail(w, http.StatusTooManyRequests, message)
}

// InternalError sends a 500 error response
func InternalError(w http.ResponseWriter, message any) {
	fail(w, http.StatusInternalServerError, message)
}

// ServiceUnavailable sends a 503 error response
func ServiceUnavailable(w http.ResponseWriter, message any) {
	fail(w, http.StatusServiceUnavailable, message)
}
