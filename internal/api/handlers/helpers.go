package handlers

import (
	"driver-batching-service/internal/auth"
	"driver-batching-service/internal/domain"
	"driver-batching-service/internal/platform/obs"
	"driver-batching-service/internal/ports"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.Logger(r.Context()).Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeAndValidate reads exactly one JSON object into out and validates it.
// It writes the 400 response itself and reports whether the handler may
// continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(out); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}

	if err := validate.Struct(out); err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErrorsToMap(err),
		})
		return false
	}
	return true
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return out
	}
	out["body"] = err.Error()
	return out
}

// currentDriver resolves the authenticated driver, writing the error
// response when it cannot.
func currentDriver(w http.ResponseWriter, r *http.Request, drivers ports.DriverRepository) (*domain.Driver, bool) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	d, err := drivers.GetDriver(r.Context(), p.DriverID)
	if errors.Is(err, ports.ErrDriverNotFound) {
		writeError(w, r, http.StatusNotFound, "driver not found")
		return nil, false
	}
	if err != nil {
		obs.Logger(r.Context()).Error().Err(err).Str("driver_id", p.DriverID).Msg("get driver failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return d, true
}
