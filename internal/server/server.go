package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nmbt2910/iheartev/internal/handler"
	"github.com/nmbt2910/iheartev/internal/locking"
	"github.com/nmbt2910/iheartev/internal/metrics"
	appmw "github.com/nmbt2910/iheartev/internal/middleware"
	"github.com/nmbt2910/iheartev/internal/repository"
	"github.com/nmbt2910/iheartev/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	e *echo.Echo
}

func New(db *gorm.DB, jwtSecret string, log *zap.SugaredLogger, m *metrics.MarketMetrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			return u.Scheme == "http" || u.Scheme == "https", nil
		},
	}))

	listingRepo := repository.NewListingRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	userRepo := repository.NewUserRepository(db)

	locks := locking.NewKeyed()

	favoriteSvc := service.NewFavoriteService(favoriteRepo, listingRepo)
	listingSvc := service.NewListingService(listingRepo, orderRepo, favoriteSvc, locks, log, m)
	orderSvc := service.NewOrderService(orderRepo, listingRepo, reviewRepo, userRepo, locks, log, m)
	reviewSvc := service.NewReviewService(reviewRepo, orderRepo, log, m)

	listingHandler := handler.NewListingHandler(listingSvc)
	adminHandler := handler.NewAdminHandler(listingSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	favoriteHandler := handler.NewFavoriteHandler(favoriteSvc)

	authMw := appmw.NewAuthMiddleware(jwtSecret)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	api.POST("/listings", listingHandler.Create, authMw.RequireAuth)
	api.PUT("/listings/:id", listingHandler.Update, authMw.RequireAuth)
	api.DELETE("/listings/:id", listingHandler.Delete, authMw.RequireAuth)
	api.GET("/listings/:id", listingHandler.Get, authMw.OptionalAuth)
	api.GET("/listings", listingHandler.Search)

	admin := api.Group("/admin", authMw.RequireAuth, authMw.RequireAdmin)
	admin.GET("/listings/pending", adminHandler.ListPending)
	admin.POST("/listings/:id/approve", adminHandler.Approve)
	admin.POST("/listings/:id/reject", adminHandler.Reject)
	admin.POST("/listings/:id/verify", adminHandler.Verify)
	admin.GET("/reports/summary", adminHandler.Summary)

	api.POST("/orders/buy-now/:listingId", orderHandler.BuyNow, authMw.RequireAuth)
	api.POST("/orders/:id/cancel", orderHandler.Cancel, authMw.RequireAuth)
	api.POST("/orders/:id/confirm-payment", orderHandler.ConfirmPayment, authMw.RequireAuth)
	api.POST("/orders/:id/confirm-received", orderHandler.ConfirmReceived, authMw.RequireAuth)
	api.GET("/orders/:id", orderHandler.GetDetail, authMw.RequireAuth)
	api.GET("/orders", orderHandler.ListMine, authMw.RequireAuth)

	api.POST("/reviews", reviewHandler.Create, authMw.RequireAuth)
	api.PUT("/reviews/:id", reviewHandler.Update, authMw.RequireAuth)
	api.DELETE("/reviews/:id", reviewHandler.Delete, authMw.RequireAuth)
	api.GET("/reviews/:id", reviewHandler.Get, authMw.RequireAuth)
	api.GET("/users/:uid/reviews", reviewHandler.ListForUser)

	api.POST("/favorites/:listingId", favoriteHandler.Add, authMw.RequireAuth)
	api.DELETE("/favorites/listing/:listingId", favoriteHandler.Remove, authMw.RequireAuth)
	api.GET("/favorites/listing/:listingId/check", favoriteHandler.Check, authMw.OptionalAuth)

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
