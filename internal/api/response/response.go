package response

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// validationBody is the flat shape the validate endpoint speaks; desktop
// clients key off the success flag and the human-readable message.
type validationBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Data: data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Error(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// Validated writes the 200 payload for an accepted license validation.
func Validated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

// Reject writes a 400 policy rejection or input error with its reason.
func Reject(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, validationBody{Success: false, Message: message})
}

// Internal writes a generic 500 without leaking internals.
func Internal(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError,
		validationBody{Success: false, Message: "Internal server error. Please try again later."})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
