// Package server wires repositories, services and handlers into the HTTP
// router.
package server

import (
	"context"
	"net/http"
	"time"

	"roombooking/internal/config"
	"roombooking/internal/middleware"
	"roombooking/internal/modules/auth"
	"roombooking/internal/modules/booking"
	"roombooking/internal/modules/catalog"
	jwtsvc "roombooking/internal/pkg/jwt"
	"roombooking/internal/pkg/keylock"
	"roombooking/internal/pkg/response"
	"roombooking/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// NewRouter builds the full API on top of an already migrated database.
func NewRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	tx := repository.NewTransactor(db)

	// one arena for both modules: room deletes and booking writes contend on
	// the same keys
	locks := keylock.New()

	j := jwtsvc.New(cfg.JWTSecret, jwtsvc.SessionTTL)

	authService := auth.NewService(userRepo, tx, j, cfg.BcryptCost)
	authHandler := auth.NewHandler(authService)

	catalogService := catalog.NewService(roomRepo, tx, locks)
	catalogHandler := catalog.NewHandler(catalogService)

	bookingService := booking.NewService(bookingRepo, roomRepo, tx, locks)
	bookingHandler := booking.NewHandler(bookingService)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorLogger())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/healthz", healthHandler(db))

	api := r.Group("/api")
	{
		// public
		authHandler.RegisterPublicRoutes(api)

		protected := api.Group("")
		protected.Use(middleware.JWTAuth(authService))
		{
			authHandler.RegisterProtectedRoutes(protected)
			catalogHandler.RegisterRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	return r
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			_ = c.Error(err)
			response.Error(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database is unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
