package handler

import (
	"context"
	"net/http"

	"github.com/yndnr/mdkeep-go/internal/core/domain"
)

// maxStateKeyLen bounds the {key} path segment.
const maxStateKeyLen = 256

func stateKey(r *http.Request) (string, error) {
	key := r.PathValue("key")
	if key == "" || len(key) > maxStateKeyLen {
		return "", domain.ErrStateKeyInvalid.WithDetails(key)
	}
	return key, nil
}

// handleListState handles GET /state.
func (h *Handler) handleListState(w http.ResponseWriter, r *http.Request) {
	keys, err := h.deps.State.Keys(r.Context())
	if err != nil {
		h.handleServiceError(w, r, domain.ErrStorage.WithCause(err))
		return
	}
	if keys == nil {
		keys = []string{}
	}
	h.writeJSON(w, r, http.StatusOK, StateKeysResponse{Items: keys, Total: len(keys)})
}

// handleGetState handles GET /state/{key}.
func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	key, err := stateKey(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	value, ok, err := h.deps.State.Get(r.Context(), key)
	if err != nil {
		h.handleServiceError(w, r, domain.ErrStorage.WithDetails("read "+key).WithCause(err))
		return
	}
	if !ok {
		h.handleServiceError(w, r, domain.ErrStateKeyNotFound.WithDetails(key))
		return
	}
	h.writeJSON(w, r, http.StatusOK, StateEntry{Key: key, Value: value})
}

// handlePutState handles PUT /state/{key}. The body is stored verbatim.
func (h *Handler) handlePutState(w http.ResponseWriter, r *http.Request) {
	key, err := stateKey(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	body, err := h.readBody(w, r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.deps.State.Set(r.Context(), key, string(body)); err != nil {
		h.handleServiceError(w, r, domain.ErrStorage.WithDetails("write "+key).WithCause(err))
		return
	}
	h.writeJSON(w, r, http.StatusOK, StateWriteResponse{Key: key, Bytes: len(body)})
}

// handleDeleteState handles DELETE /state/{key}.
func (h *Handler) handleDeleteState(w http.ResponseWriter, r *http.Request) {
	key, err := stateKey(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.deps.State.Delete(r.Context(), key); err != nil {
		h.handleServiceError(w, r, domain.ErrStorage.WithDetails("delete "+key).WithCause(err))
		return
	}
	h.writeJSON(w, r, http.StatusOK, StateWriteResponse{Key: key})
}

// handleSaveHook handles POST /hooks/save. The backup runs before the
// response is written but its outcome is only logged.
func (h *Handler) handleSaveHook(w http.ResponseWriter, r *http.Request) {
	if h.deps.SaveHook != nil {
		h.deps.SaveHook.OnSave(context.WithoutCancel(r.Context()))
	}
	h.writeJSON(w, r, http.StatusAccepted, nil)
}
