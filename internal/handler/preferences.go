package handler

import (
	"fmt"
	"net/http"

	"github.com/pavelanni/quizforge/internal/model"
)

func (h *Handler) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusOK, model.DefaultPreferences())
		return
	}
	p, err := h.store.LoadPreferences()
	if err != nil {
		writeError(w, r, fmt.Errorf("load preferences: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, r, errNoStore)
		return
	}
	// Fields left out of the body keep their default values.
	p := model.DefaultPreferences()
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errInvalidPreferences, err))
		return
	}
	if err := h.store.SavePreferences(p); err != nil {
		writeError(w, r, fmt.Errorf("save preferences: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}
