package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	apperrors "aegis-secure/pkg/errors"
	"aegis-secure/pkg/validator"
)

const maxBodyBytes = 4 << 20

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into dst and runs its validate tags
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) *apperrors.AppError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewBadRequest("Request body is required")
		}
		return apperrors.NewBadRequest("Invalid request body").WithInternal(err)
	}
	if err := validator.ValidateStruct(dst); err != nil {
		return apperrors.NewBadRequest(err.Error()).WithInternal(err)
	}
	return nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string) (int, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, err
	}
	return v, true, nil
}
