// Package httputil provides the JSON request and response helpers shared by
// handlers and middleware.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DecodeJSON decodes a request body, rejecting unknown fields.
func DecodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes the error message in the standard envelope.
func WriteError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusBadRequest, err)
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusUnauthorized, errors.New(msg))
}

// Forbidden writes a 403 response.
func Forbidden(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusForbidden, errors.New(msg))
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusNotFound, errors.New(msg))
}

// InternalError writes a 500 response.
func InternalError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusInternalServerError, err)
}

// MethodNotAllowed writes a 405 response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	WriteError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", method))
}
