package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"intelhub.dev/internal/dossier"
	"intelhub.dev/internal/obs"
	"intelhub.dev/internal/stats"
	"intelhub.dev/internal/travel"
)

// writeJSON encodes v before touching the response so an unencodable value
// becomes a 500 instead of a committed status with an empty body.
func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		obs.Error("response_encode_failed", err, nil)
		code = http.StatusInternalServerError
		data = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

// decodeJSON reads exactly one JSON value. The body size limit comes from
// the MaxBodyBytes middleware.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleServiceError maps domain errors to status codes. Unknown errors are
// logged and reported as a generic 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, travel.ErrOutOfOrder):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, travel.ErrInvalidRecord), errors.Is(err, stats.ErrEmptyInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, dossier.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		obs.Error("request_failed", err, map[string]any{
			"request_id": RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
		})
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func subjectID(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("id"))
}
