package controllers

import (
	"net/http"

	"github.com/bitewise-app/bitewise-backend/api/responses"
	"github.com/bitewise-app/bitewise-backend/pkg/config"
	"github.com/bitewise-app/bitewise-backend/pkg/db"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
	"github.com/bitewise-app/bitewise-backend/pkg/logger"
	"github.com/bitewise-app/bitewise-backend/pkg/redis"
)

const envHeader = "X-BiteWise-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores so load balancers only route to
// instances that can actually serve.
func HealthReady(cfg *config.Config, logg *logger.Logger, database db.Pinger, cache redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
				checks["database"] = "unreachable"
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				checks["redis"] = "unreachable"
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
