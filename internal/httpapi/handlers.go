package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/roach88/slipstream/internal/layout"
	"github.com/roach88/slipstream/internal/settings"
	"github.com/roach88/slipstream/internal/store"
)

// maxBodyBytes bounds POST bodies; layout documents are a handful of keys.
const maxBodyBytes = 64 << 10

// Routing members of a POST body. They select the context and are never
// stored as settings.
const (
	fieldPath   = "path"
	fieldDevice = "device"
)

type handlers struct {
	svc    LayoutService
	logger *slog.Logger
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := h.svc.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		status := http.StatusInternalServerError
		if store.IsUnavailable(err) {
			status = http.StatusServiceUnavailable
		}
		w.WriteHeader(status)
		fmt.Fprintln(w, "UNAVAILABLE")
		return
	}
	fmt.Fprintln(w, "OK")
}

func (h *handlers) getLayout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := layout.Request{
		UserID: r.Header.Get(UserHeader),
		Path:   q.Get(fieldPath),
		Device: q.Get(fieldDevice),
	}

	rec, err := h.svc.Load(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *handlers) postLayout(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error:  "request body too large",
				Detail: fmt.Sprintf("limit is %d bytes", tooLarge.Limit),
			})
			return
		}
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Detail: err.Error()})
		return
	}

	path, device, partial, err := decodeUpdate(body)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Detail: err.Error()})
		return
	}

	req := layout.Request{
		UserID: r.Header.Get(UserHeader),
		Path:   path,
		Device: device,
	}

	rec, err := h.svc.Update(r.Context(), req, partial)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// decodeUpdate splits a POST body into its routing fields and the partial
// settings document. The body must be a JSON object.
func decodeUpdate(body []byte) (path, device string, partial settings.Document, err error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", settings.ErrInvalid, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return "", "", nil, fmt.Errorf("%w: trailing data after body", settings.ErrInvalid)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return "", "", nil, fmt.Errorf("%w: body must be a JSON object", settings.ErrInvalid)
	}

	if path, err = takeString(obj, fieldPath); err != nil {
		return "", "", nil, err
	}
	if device, err = takeString(obj, fieldDevice); err != nil {
		return "", "", nil, err
	}

	partial, err = settings.FromMap(obj)
	if err != nil {
		return "", "", nil, err
	}
	return path, device, partial, nil
}

// takeString removes key from obj and returns it, requiring a string if present.
func takeString(obj map[string]any, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", nil
	}
	delete(obj, key)
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", settings.ErrInvalid, key)
	}
	return s, nil
}

// writeServiceError maps store errors to responses. Storage details are
// logged, never sent to the client.
func (h *handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case store.IsValidation(err):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Detail: err.Error()})
	default:
		h.logger.Error("layout request failed", "error", err, "unavailable", store.IsUnavailable(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "layout store unavailable"})
	}
}

func (h *handlers) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if allow, ok := allowedMethods[r.URL.Path]; ok {
		w.Header().Set("Allow", allow)
	}
	h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func (h *handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("write response", "error", err)
	}
}
