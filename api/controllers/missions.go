package controllers

import (
	"net/http"

	"github.com/bitewise-app/bitewise-backend/api/responses"
	"github.com/bitewise-app/bitewise-backend/api/validators"
	"github.com/bitewise-app/bitewise-backend/internal/missions"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
	"github.com/bitewise-app/bitewise-backend/pkg/logger"
)

// MissionsPull returns the server snapshot, or an empty body when the caller
// has never synced.
func MissionsPull(svc missions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "missions service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.Pull(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"snapshot": snapshot})
	}
}

// MissionsPush offers a device snapshot; the response carries the snapshot
// the server considers authoritative afterwards.
func MissionsPush(svc missions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "missions service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var snapshot missions.Snapshot
		if err := validators.DecodeJSONBody(r, &snapshot); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stored, accepted, err := svc.Push(r.Context(), userID, snapshot)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"snapshot": stored, "accepted": accepted})
	}
}
