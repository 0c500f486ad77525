package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/cueboard/internal/bracket"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Conflict answers a refusal. The body tells the UI why and, for
// confirmation_required, how many matches a confirmed retry discards.
func Conflict(w http.ResponseWriter, refusal *bracket.Refusal) {
	slog.Info("intent refused", "reason", refusal.Reason, "detail", refusal.Detail)
	JSON(w, http.StatusConflict, refusal)
}

func UnprocessableEntity(w http.ResponseWriter, err error) {
	slog.Warn("precondition failed", "error", err)
	http.Error(w, err.Error(), http.StatusUnprocessableEntity)
}

// Error picks the response for whatever a bracket intent returned
func Error(w http.ResponseWriter, msg string, err error) {
	if refusal, ok := bracket.AsRefusal(err); ok {
		Conflict(w, refusal)
		return
	}
	switch {
	case bracket.IsNotFound(err):
		NotFound(w, err.Error(), err)
	case bracket.IsPrecondition(err):
		UnprocessableEntity(w, err)
	default:
		InternalServerError(w, msg, err)
	}
}
