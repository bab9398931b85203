package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/medlink/internal/auth"
	"github.com/geocoder89/medlink/internal/cache"
	"github.com/geocoder89/medlink/internal/config"
	"github.com/geocoder89/medlink/internal/http/handlers"
	"github.com/geocoder89/medlink/internal/http/middlewares"
	"github.com/geocoder89/medlink/internal/observability"
	"github.com/geocoder89/medlink/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const directoryCacheTTL = 30 * time.Second

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// metrics registry is per-engine so tests can build routers freely
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware([]string{cfg.FrontendOrigin}))
	r.Use(middlewares.MaxBodyBytes(1 << 20)) // 1 MiB
	r.Use(otelgin.Middleware("medlink"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.RequestLogger(log))

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	refreshRepo := postgres.NewRefreshTokensRepo(pool)
	patientsRepo := postgres.NewPatientsRepo(pool, prom)
	doctorsRepo := postgres.NewDoctorsRepo(pool, prom)
	mappingsRepo := postgres.NewMappingsRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	authMw := middlewares.NewAuthMiddleware(jwtManager)

	// shared directory cache when Redis is configured, per-process otherwise
	var directoryCache cache.Store
	if cfg.RedisAddr != "" {
		directoryCache = cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      directoryCacheTTL,
		})
	} else {
		directoryCache = cache.NewMemory(directoryCacheTTL)
	}

	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager, refreshRepo, cfg)
	patientsHandler := handlers.NewPatientsHandler(patientsRepo)
	doctorsHandler := handlers.NewDoctorsHandlerWithCache(doctorsRepo, directoryCache)
	mappingsHandler := handlers.NewMappingsHandler(mappingsRepo)

	api := r.Group("/api")

	// credential endpoints are rate limited by client IP
	authLimiter := middlewares.NewRateLimiter(20, time.Minute)

	authGroup := api.Group("/auth")
	authGroup.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	authGroup.POST("/register", middlewares.RequireJSON(), authHandler.Register)
	authGroup.POST("/login", middlewares.RequireJSON(), authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)

	patientsGroup := api.Group("/patients")
	patientsGroup.Use(authMw.RequireAuth(), middlewares.RequireJSON())
	patientsGroup.POST("", patientsHandler.CreatePatient)
	patientsGroup.GET("", patientsHandler.ListPatients)
	patientsGroup.GET("/:id", patientsHandler.GetPatientById)
	patientsGroup.PUT("/:id", patientsHandler.UpdatePatient)
	patientsGroup.DELETE("/:id", patientsHandler.DeletePatient)

	// doctor reads are a public directory; writes require auth
	api.GET("/doctors", doctorsHandler.ListDoctors)
	api.GET("/doctors/:id", doctorsHandler.GetDoctorById)

	doctorsGroup := api.Group("/doctors")
	doctorsGroup.Use(authMw.RequireAuth(), middlewares.RequireJSON())
	doctorsGroup.POST("", doctorsHandler.CreateDoctor)
	doctorsGroup.PUT("/:id", doctorsHandler.UpdateDoctor)
	doctorsGroup.DELETE("/:id", doctorsHandler.DeleteDoctor)

	mappingsGroup := api.Group("/mappings")
	mappingsGroup.Use(authMw.RequireAuth(), middlewares.RequireJSON())
	mappingsGroup.POST("", mappingsHandler.CreateMapping)
	mappingsGroup.GET("", mappingsHandler.ListMappings)
	mappingsGroup.GET("/:id", mappingsHandler.ListMappingsForPatient)
	mappingsGroup.DELETE("/:id", mappingsHandler.DeleteMapping)

	return r
}
