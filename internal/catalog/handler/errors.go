package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "sdgcatalog/pkg/domain-errors"
)

// errorResponse is the error body of the write API: a top-level code and
// message, plus the field-keyed violation list for validation failures.
type errorResponse struct {
	Error   string                   `json:"error"`
	Message string                   `json:"message"`
	Fields  []dErrors.FieldViolation `json:"fields,omitempty"`
}

// WriteError maps a domain error onto an HTTP response.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := dErrors.CodeInternal
	message := "internal error"

	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		message = de.Message
		switch de.Code {
		case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation:
			status = http.StatusBadRequest
		case dErrors.CodeNotFound:
			status = http.StatusNotFound
		case dErrors.CodeConflict:
			status = http.StatusConflict
		case dErrors.CodeInvariantViolation:
			status = http.StatusUnprocessableEntity
		case dErrors.CodeUnauthorized:
			status = http.StatusUnauthorized
		default:
			status = http.StatusInternalServerError
			message = "internal error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   string(code),
		Message: message,
		Fields:  dErrors.Violations(err),
	})
}
