package response

import (
	"encoding/json"
	"net/http"

	"uploadgate/internal/upload"
)

// Problem is the structured error payload every endpoint returns.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteProblem writes a standardized error response.
func WriteProblem(w http.ResponseWriter, status int, code, message, hint string) {
	WriteJSON(w, status, Problem{Code: code, Message: message, Hint: hint})
}

// WriteError maps a manager error to its HTTP status and problem payload.
func WriteError(w http.ResponseWriter, err error) {
	kind := upload.KindOf(err)
	WriteProblem(w, statusFor(kind), string(kind), err.Error(), hintFor(kind))
}

func statusFor(kind upload.Kind) int {
	switch kind {
	case upload.KindValidation:
		return http.StatusBadRequest
	case upload.KindNotFound:
		return http.StatusNotFound
	case upload.KindForbidden:
		return http.StatusForbidden
	case upload.KindConflict:
		return http.StatusConflict
	case upload.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func hintFor(kind upload.Kind) string {
	switch kind {
	case upload.KindConflict:
		return "Re-read the upload state before retrying"
	case upload.KindUpstream:
		return "The object store rejected the call; retry later"
	default:
		return ""
	}
}
