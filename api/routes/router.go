package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/incentraworks/incentra-backend/api/controllers"
	"github.com/incentraworks/incentra-backend/api/middleware"
	"github.com/incentraworks/incentra-backend/internal/limits"
	"github.com/incentraworks/incentra-backend/internal/notifications"
	"github.com/incentraworks/incentra-backend/internal/requests"
	"github.com/incentraworks/incentra-backend/internal/users"
	"github.com/incentraworks/incentra-backend/pkg/config"
	"github.com/incentraworks/incentra-backend/pkg/enums"
	"github.com/incentraworks/incentra-backend/pkg/logger"
	"github.com/incentraworks/incentra-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	usersService users.Service,
	limitsService limits.Service,
	requestsService requests.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.CORS(),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	signupPolicy := middleware.NewRateLimitPolicy(
		"signup",
		cfg.RateLimit.SignupWindow,
		cfg.RateLimit.SignupIPLimit,
		cfg.RateLimit.SignupEmailLimit,
	)

	r.Route("/api/public", func(r chi.Router) {
		r.With(middleware.RateLimit(signupPolicy, redisClient, logg)).
			Post("/signup", controllers.RegisterUser(usersService, logg))
		r.Get("/rewards", controllers.ListRewards())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.Idempotency(redisClient, cfg.Idempotency, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.GetMe(usersService, logg))
			r.Put("/me", controllers.UpdateProfile(usersService, logg))
		})

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", controllers.ListRequests(requestsService, logg))
			r.Get("/{id}", controllers.GetRequest(requestsService, logg))
			r.With(middleware.RequireRole(enums.RoleFabricator, logg)).
				Post("/", controllers.SubmitRequest(requestsService, logg))
			r.With(middleware.RequireRole(enums.RoleDealer, logg)).
				Post("/{id}/dealer-decision", controllers.DealerDecision(requestsService, logg))
			r.With(middleware.RequireRole(enums.RoleDistributor, logg)).
				Post("/{id}/distributor-decision", controllers.DistributorDecision(requestsService, logg))
			r.With(middleware.RequireRole(enums.RoleCompany, logg)).
				Post("/{id}/company-decision", controllers.CompanyDecision(requestsService, logg))
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", controllers.ListRewards())
			r.With(middleware.RequireRole(enums.RoleFabricator, logg)).
				Post("/redeem", controllers.RedeemReward(usersService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{id}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})

		r.With(middleware.RequireRole(enums.RoleDistributor, logg)).
			Get("/limits/me", controllers.GetMyLimit(limitsService, logg))

		r.Route("/company", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleCompany, logg))
			r.Get("/users", controllers.ListUsersByRole(usersService, logg))
			r.Post("/distributors", controllers.CreateDistributor(usersService, logg))
			r.Post("/dealers/assign", controllers.AssignDealer(usersService, logg))
			r.Get("/limits", controllers.ListLimits(limitsService, logg))
			r.Put("/limits/{id}", controllers.SetDistributorLimit(limitsService, logg))
		})
	})

	return r
}
