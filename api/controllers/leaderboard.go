package controllers

import (
	"net/http"
	"strings"

	"github.com/bitewise-app/bitewise-backend/api/responses"
	"github.com/bitewise-app/bitewise-backend/api/validators"
	"github.com/bitewise-app/bitewise-backend/internal/leaderboard"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
	"github.com/bitewise-app/bitewise-backend/pkg/logger"
)

// LeaderboardTop returns the highest weekly savers for a region.
func LeaderboardTop(svc leaderboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "leaderboard service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		region := strings.TrimSpace(r.URL.Query().Get("region"))
		weekID := strings.TrimSpace(r.URL.Query().Get("week"))

		entries, err := svc.Top(r.Context(), region, weekID, int64(limit))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"entries": entries})
	}
}

// LeaderboardMe returns the caller's own rank and score.
func LeaderboardMe(svc leaderboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "leaderboard service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		region := strings.TrimSpace(r.URL.Query().Get("region"))
		weekID := strings.TrimSpace(r.URL.Query().Get("week"))

		standing, err := svc.Standing(r.Context(), region, weekID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, standing)
	}
}
