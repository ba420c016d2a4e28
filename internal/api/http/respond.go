package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/moiseiyaa/iremeHub-lms/internal/progress"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	code := progress.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case progress.CodeNotFound:
		status = http.StatusNotFound
	case progress.CodeUnauthorized:
		status = http.StatusForbidden
	case progress.CodeInvalidInput:
		status = http.StatusBadRequest
	case progress.CodeTimeLimitExceeded:
		status = http.StatusUnprocessableEntity
	case progress.CodeAlreadyIssued:
		status = http.StatusConflict
	case progress.CodePreconditionFailed:
		status = http.StatusPreconditionFailed
	case progress.CodeUnavailable:
		status = http.StatusServiceUnavailable
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, map[string]any{"error": msg, "code": string(code)})
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return progress.Errorf(progress.CodeInvalidInput, "bad json")
	}
	if err := validate.Struct(dst); err != nil {
		return progress.Errorf(progress.CodeInvalidInput, "%v", err)
	}
	return nil
}
