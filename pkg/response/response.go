// Package response writes nearcart's JSON envelope from plain http handlers
// and middleware. Controllers use the same envelope through pkg/ctx.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/nearcart/pkg/orm"
)

type envelope struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Error sends a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Status: status, Message: message})
}

// Fail sends a JSON error response carrying a stable machine-readable code.
func Fail(w http.ResponseWriter, status int, code, message string) {
	write(w, status, envelope{Status: status, Code: code, Message: message})
}

// Paginated sends a 200 response with items and pagination metadata.
func Paginated(w http.ResponseWriter, data any, pagination orm.Pagination) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: Page{Items: data, Pagination: pagination}})
}

// Page is the data payload of a paginated response.
type Page struct {
	Items      any            `json:"items"`
	Pagination orm.Pagination `json:"pagination"`
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter) {
	Fail(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Unauthorized")
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Fail(w, http.StatusNotFound, "ROUTE_NOT_FOUND", "Not found")
}

// MethodNotAllowed sends a 405.
func MethodNotAllowed(w http.ResponseWriter) {
	Fail(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}
