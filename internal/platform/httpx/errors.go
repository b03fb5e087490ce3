package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/bcs-estimating/internal/shared"
)

var statusByKind = map[string]int{
	"InvalidInput":           http.StatusBadRequest,
	"NotFound":               http.StatusNotFound,
	"RuleNotFound":           http.StatusUnprocessableEntity,
	"RuleInactive":           http.StatusUnprocessableEntity,
	"LineItemSourceNotFound": http.StatusUnprocessableEntity,
	"InvalidState":           http.StatusConflict,
	"ConcurrencyConflict":    http.StatusConflict,
	"StoreUnavailable":       http.StatusServiceUnavailable,
}

// StatusFor returns the HTTP status for a domain error.
func StatusFor(err error) int {
	if status, ok := statusByKind[shared.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RespondError maps domain errors to HTTP responses using RFC7807.
// Internal errors never leak their message.
func RespondError(w http.ResponseWriter, err error) {
	kind := shared.KindOf(err)
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		writeProblem(w, ProblemDetail{Title: "Internal Error", Status: status, Kind: kind})
		return
	}
	writeProblem(w, ProblemDetail{
		Title:  http.StatusText(status),
		Status: status,
		Kind:   kind,
		Detail: err.Error(),
	})
}

// ErrBadBody wraps request bodies that fail to decode.
var ErrBadBody = errors.New("malformed request body")
