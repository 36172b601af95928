package controllers

import (
	"net/http"

	"github.com/bitewise-app/bitewise-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"message": "pong"})
	}
}
