package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bitewise-app/bitewise-backend/api/middleware"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
)

// callerID extracts the authenticated user id seeded by the auth middleware.
func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
