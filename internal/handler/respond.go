package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pavelanni/quizforge/internal/generate"
	appI18n "github.com/pavelanni/quizforge/internal/i18n"
	"github.com/pavelanni/quizforge/internal/session"
)

var (
	errBadRequest         = errors.New("bad request")
	errInvalidPreferences = errors.New("invalid preferences")
	errNoStore            = errors.New("persistence disabled")
	errRequestTooLarge    = errors.New("request too large")
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// constraintMessages maps constraint codes to message IDs.
var constraintMessages = map[generate.ConstraintCode]string{
	generate.CodeTooManyFiles:    "ErrTooManyFiles",
	generate.CodeFileTooLarge:    "ErrFileTooLarge",
	generate.CodeNoFiles:         "ErrNoFiles",
	generate.CodeInvalidStrategy: "ErrInvalidStrategy",
	generate.CodeInvalidLevel:    "ErrInvalidDifficulty",
}

// writeError maps err to a status and a localized message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	var (
		status int
		code   string
		msg    string
	)
	if ce, ok := generate.IsConstraint(err); ok {
		limit := ce.Limit
		if ce.Code == generate.CodeFileTooLarge {
			limit >>= 20
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: appI18n.Td(ctx, constraintMessages[ce.Code], map[string]any{"Limit": limit, "Name": ce.Name, "Value": ce.Name}),
			Code:  string(ce.Code),
		})
		return
	}

	switch {
	case errors.Is(err, session.ErrNotFound):
		status, code, msg = http.StatusNotFound, "not_found", "ErrSessionNotFound"
	case errors.Is(err, session.ErrUnknownQuestion):
		status, code, msg = http.StatusNotFound, "unknown_question", "ErrUnknownQuestion"
	case errors.Is(err, session.ErrBusy):
		status, code, msg = http.StatusConflict, "busy", "ErrBusy"
	case errors.Is(err, session.ErrInvalidTransition):
		status, code, msg = http.StatusConflict, "invalid_transition", "ErrInvalidTransition"
	case errors.Is(err, errRequestTooLarge):
		status, code, msg = http.StatusRequestEntityTooLarge, "request_too_large", "ErrRequestTooLarge"
	case errors.Is(err, errBadRequest):
		status, code, msg = http.StatusBadRequest, "bad_request", "ErrBadRequest"
	case errors.Is(err, errInvalidPreferences):
		status, code, msg = http.StatusUnprocessableEntity, "invalid_preferences", "ErrInvalidPreferences"
	case errors.Is(err, errNoStore):
		status, code, msg = http.StatusNotFound, "persistence_disabled", "ErrPersistenceDisabled"
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		status, code, msg = http.StatusInternalServerError, "internal", "ErrInternal"
	}
	if status < http.StatusInternalServerError {
		slog.Debug("request rejected", "path", r.URL.Path, "code", code, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: appI18n.T(ctx, msg), Code: code})
}
