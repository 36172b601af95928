package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bitewise-app/bitewise-backend/api/controllers"
	"github.com/bitewise-app/bitewise-backend/api/middleware"
	"github.com/bitewise-app/bitewise-backend/internal/leaderboard"
	"github.com/bitewise-app/bitewise-backend/internal/missions"
	"github.com/bitewise-app/bitewise-backend/internal/notifications"
	"github.com/bitewise-app/bitewise-backend/internal/orders"
	"github.com/bitewise-app/bitewise-backend/internal/referrals"
	"github.com/bitewise-app/bitewise-backend/internal/wallet"
	"github.com/bitewise-app/bitewise-backend/pkg/config"
	"github.com/bitewise-app/bitewise-backend/pkg/db"
	"github.com/bitewise-app/bitewise-backend/pkg/logger"
	"github.com/bitewise-app/bitewise-backend/pkg/redis"
)

// Services groups the domain services the router exposes.
type Services struct {
	Wallet        wallet.Service
	Orders        orders.Service
	Referrals     referrals.Service
	Missions      missions.Service
	Leaderboard   leaderboard.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database db.Pinger,
	redisClient *redis.Client,
	services Services,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.CORS(),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	redeemPolicy := middleware.NewRateLimitPolicy("redeem", time.Minute, 5, 20)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, database, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/leaderboard", controllers.LeaderboardTop(services.Leaderboard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/wallet", func(r chi.Router) {
			r.Post("/credit", controllers.WalletCredit(services.Wallet, logg))
			r.Get("/summary", controllers.WalletSummary(services.Wallet, logg))
			r.Get("/history", controllers.WalletHistory(services.Wallet, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/outbound", controllers.OrdersRecordOutbound(services.Orders, logg))
			r.Post("/{orderID}/complete", controllers.OrdersComplete(services.Orders, logg))
			r.Get("/", controllers.OrdersList(services.Orders, logg))
		})

		r.Route("/referrals", func(r chi.Router) {
			r.Post("/code", controllers.ReferralsCreateCode(services.Referrals, logg))
			r.With(middleware.RateLimit(redeemPolicy, redisClient, logg)).
				Post("/redeem", controllers.ReferralsRedeem(services.Referrals, logg))
			r.Get("/status", controllers.ReferralsStatus(services.Referrals, logg))
		})

		r.Route("/missions", func(r chi.Router) {
			r.Get("/snapshot", controllers.MissionsPull(services.Missions, logg))
			r.Post("/snapshot", controllers.MissionsPush(services.Missions, logg))
		})

		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/top", controllers.LeaderboardTop(services.Leaderboard, logg))
			r.Get("/me", controllers.LeaderboardMe(services.Leaderboard, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(services.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(services.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(services.Notifications, logg))
		})
	})

	return r
}
