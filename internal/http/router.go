package http

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/GITAKAYA254/vendorhub-connect/internal/http/handlers"
	"github.com/GITAKAYA254/vendorhub-connect/internal/http/middleware"
	"github.com/GITAKAYA254/vendorhub-connect/internal/modules/paymentmethods"
	"github.com/GITAKAYA254/vendorhub-connect/internal/modules/payments"
	"github.com/GITAKAYA254/vendorhub-connect/internal/mpesa"
)

func NewRouter(logger *slog.Logger, db *gorm.DB) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.ErrorHandler(logger))

	gateway := mpesa.NewClient(mpesa.ConfigFromEnv())
	ledger := payments.NewRepo(db)
	methods := paymentmethods.NewService(db)

	paySvc := payments.NewService(ledger, methods, gateway, gateway.Defaults())
	paySvc.SetLogger(logger)

	reconciler := payments.NewReconciler(ledger)
	reconciler.SetLogger(logger)

	payHandler := handlers.NewPaymentsHandler(logger, paySvc)
	methodsHandler := handlers.NewPaymentMethodsHandler(logger, methods)
	callbackHandler := handlers.NewCallbackHandler(logger, reconciler)

	api := r.Group("/api")

	pay := api.Group("/payments")
	pay.POST("/callback/mpesa",
		middleware.CallbackGuard(logger, middleware.CallbackGuardConfig{
			Token:        os.Getenv("MPESA_CALLBACK_TOKEN"),
			RequireHTTPS: os.Getenv("APP_ENV") == "production",
		}),
		callbackHandler.Mpesa,
	)
	pay.POST("/initiate", middleware.RequireAuth(), payHandler.Initiate)
	pay.GET("/:id", middleware.RequireAuth(), payHandler.Status)

	pm := api.Group("/payment-methods")
	pm.GET("/vendor/:vendorId", methodsHandler.PublicList)

	pmSelf := pm.Group("", middleware.RequireAuth(), middleware.RequireVendor())
	pmSelf.GET("", methodsHandler.ListMine)
	pmSelf.POST("", methodsHandler.Upsert)
	pmSelf.DELETE("/:type", methodsHandler.Remove)

	return r
}
