package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before touching the response, so an unencodable value
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		if _, isErr := v.(errorResponse); isErr {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		writeError(w, fmt.Errorf("encode response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// writeError picks the status from the Kind attached to err, 500 otherwise.
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	if k := kindOf(err); k != nil {
		status, code = k.Status, k.Code
	}
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// allow rejects requests whose method differs from method.
func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "method_not_allowed", Message: http.StatusText(http.StatusMethodNotAllowed)})
	return false
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, WrapKind(KindBadRequest, fmt.Errorf("%s must be an integer", name))
	}
	return v, nil
}

// requiredInt parses a mandatory integer query parameter.
func requiredInt(r *http.Request, name string) (int, error) {
	if strings.TrimSpace(r.URL.Query().Get(name)) == "" {
		return 0, WrapKind(KindBadRequest, fmt.Errorf("missing %s", name))
	}
	return intParam(r, name, 0)
}

// requiredFloat parses a mandatory float query parameter.
func requiredFloat(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, WrapKind(KindBadRequest, fmt.Errorf("missing %s", name))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, WrapKind(KindBadRequest, fmt.Errorf("%s must be a number", name))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, WrapKind(KindBadRequest, errors.New(name+" must be finite"))
	}
	return v, nil
}
