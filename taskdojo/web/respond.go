package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/repositories"
	"github.com/taskdojo-app/taskdojo/taskdojo/scheduler"
	"github.com/taskdojo-app/taskdojo/taskdojo/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeServiceError maps the service layer's typed outcomes onto HTTP
// statuses. Anything unrecognized is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var rejected *services.VerificationRejected
	switch {
	case errors.As(err, &rejected):
		// Not a failure: the task stays active and the report can be
		// revised, so the verdict is rendered as a normal payload.
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"verdict":  "rejected",
			"feedback": rejected.Feedback,
		})
	case repositories.IsNotFound(err):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, services.ErrTaskTerminal),
		errors.Is(err, services.ErrWrongKind),
		errors.Is(err, services.ErrLinkConflict),
		errors.Is(err, services.ErrNotEquippable):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, services.ErrAlreadyCheckedIn),
		errors.Is(err, services.ErrAlreadyAttacked),
		errors.Is(err, scheduler.ErrAlreadyRan):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, services.ErrInsufficientCoins):
		writeError(w, http.StatusPaymentRequired, err)
	case errors.Is(err, services.ErrNotOwned):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, services.ErrNoBoss):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
