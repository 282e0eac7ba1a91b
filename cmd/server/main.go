package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"storefront-service/internal/cache"
	"storefront-service/internal/config"
	"storefront-service/internal/controller"
	"storefront-service/internal/logger"
	"storefront-service/internal/middleware"
	"storefront-service/internal/oauth"
	"storefront-service/internal/payment"
	"storefront-service/internal/pricing"
	"storefront-service/internal/rabbit"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
)

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Sin config todavía no hay logger configurado
		logger.L().Fatal("config", zap.Error(err))
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Conexión a MongoDB
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := repository.ConnectMongo(connectCtx, cfg.Mongo.URI, cfg.Mongo.DBName)
	cancel()
	if err != nil {
		log.Fatal("mongo connect", zap.Error(err))
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()

	// Repositorios
	orderRepo := repository.NewMongoOrderRepository(db)
	productRepo := repository.NewMongoProductRepository(db)
	userRepo := repository.NewMongoUserRepository(db)

	// El índice único de sesiones de pago es el que garantiza una sola orden por checkout.
	for _, r := range []indexer{orderRepo, productRepo, userRepo} {
		if err := r.EnsureIndexes(ctx); err != nil {
			log.Fatal("ensure indexes", zap.Error(err))
		}
	}

	// Caché de productos (opcional)
	var productCache cache.ProductCache = cache.Nop{}
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis no disponible, caché deshabilitada", zap.Error(err))
		} else {
			defer rdb.Close()
			productCache = cache.NewRedisCache(rdb)
		}
	}

	// RabbitMQ (opcional)
	var events service.EventPublisher
	var amqpConn *amqp091.Connection
	if cfg.Rabbit.URL != "" {
		amqpConn, err = amqp091.Dial(cfg.Rabbit.URL)
		if err != nil {
			log.Fatal("rabbitmq dial", zap.Error(err))
		}
		defer amqpConn.Close()

		pubCh, err := amqpConn.Channel()
		if err != nil {
			log.Fatal("rabbitmq channel", zap.Error(err))
		}
		if err := rabbit.DeclareOrderPlaced(pubCh); err != nil {
			log.Fatal("declare order_placed", zap.Error(err))
		}
		events = rabbit.NewOrderPlacedPublisher(pubCh)
	}

	// Servicios
	calc := pricing.New(cfg.Pricing.TaxRate, cfg.Pricing.FreeShippingThreshold, cfg.Pricing.FlatShippingFee)
	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Currency:      cfg.Stripe.Currency,
	}, nil)
	google := oauth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)

	orderService := service.NewOrderService(orderRepo, calc, events)
	checkoutService := service.NewCheckoutService(orderRepo, gateway, calc, events, cfg.BaseURL)
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, google)
	userService := service.NewUserService(userRepo)
	productService := service.NewProductService(productRepo, productCache)
	adminService := service.NewAdminService(orderRepo, productRepo)

	if amqpConn != nil {
		subCh, err := amqpConn.Channel()
		if err != nil {
			log.Fatal("rabbitmq channel", zap.Error(err))
		}
		if err := rabbit.SetupConsumers(ctx, subCh, orderService); err != nil {
			log.Fatal("rabbitmq consumers", zap.Error(err))
		}
	}

	// Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("trusted proxies", zap.Error(err))
	}
	limiter := middleware.NewRateLimiter(ctx)
	r.Use(middleware.RequestID(), middleware.AccessLog(), gin.Recovery(), limiter.Middleware())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	controller.RegisterRoutes(r, controller.Handlers{
		Orders:   controller.NewOrderController(orderService),
		Checkout: controller.NewCheckoutController(checkoutService),
		Auth:     controller.NewAuthController(authService, cfg.BaseURL, cfg.Auth.TokenTTL, cfg.IsProduction()),
		Users:    controller.NewUserController(userService),
		Products: controller.NewProductController(productService),
		Admin:    controller.NewAdminController(adminService),
	}, middleware.AuthMiddleware(authService))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(r, "storefront-service"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info("storefront-service escuchando", zap.String("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("apagando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
