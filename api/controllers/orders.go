package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bitewise-app/bitewise-backend/api/responses"
	"github.com/bitewise-app/bitewise-backend/api/validators"
	"github.com/bitewise-app/bitewise-backend/internal/orders"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
	"github.com/bitewise-app/bitewise-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type completeOrderRequest struct {
	SavedAmount decimal.Decimal `json:"savedAmount"`
}

// OrdersRecordOutbound stores an outbound click before redirecting the user
// to a delivery platform.
func OrdersRecordOutbound(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orders.OutboundPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.RecordOutbound(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"id": event.ID.String()})
	}
}

// OrdersComplete marks an order event as completed and triggers its rollups.
func OrdersComplete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var body completeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Complete(r.Context(), userID, orderID, body.SavedAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OrdersList returns the caller's recent order events, newest first.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.List(r.Context(), userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": events})
	}
}
