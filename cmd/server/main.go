package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"licoreria-service/internal/catalog"
	"licoreria-service/internal/config"
	"licoreria-service/internal/database"
	"licoreria-service/internal/engine"
	"licoreria-service/internal/handlers"
	"licoreria-service/internal/ledger"
	"licoreria-service/internal/middleware"
	"licoreria-service/internal/realtime"
	"licoreria-service/internal/routes"
	"licoreria-service/internal/tickets"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := buildLogger(cfg.Logging.Level)
	defer logger.Sync()

	gin.SetMode(cfg.Server.GinMode)

	// Infraestructura
	postgresDB, err := database.NewPostgresDB(
		cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime, logger,
	)
	if err != nil {
		logger.Fatal("❌ No se pudo conectar a PostgreSQL", zap.Error(err))
	}
	defer postgresDB.Close()

	redisDB, err := database.NewRedisDB(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("❌ No se pudo conectar a Redis", zap.Error(err))
	}
	defer redisDB.Close()

	// Catálogo con caché multi-nivel
	precioCache := catalog.NewPrecioCache(redisDB.Client, 1000, cfg.Org.CacheTTL, logger)
	catalogo, err := catalog.NewPostgresCatalog(postgresDB.DB, precioCache, logger)
	if err != nil {
		logger.Fatal("❌ No se pudo inicializar el catálogo", zap.Error(err))
	}

	// Ledger de stock
	stockLedger, err := ledger.NewPostgresLedger(postgresDB.DB, catalogo, logger)
	if err != nil {
		logger.Fatal("❌ No se pudo inicializar el ledger", zap.Error(err))
	}

	// Tickets
	ticketRepo, err := tickets.NewPostgresRepository(postgresDB.DB, logger)
	if err != nil {
		logger.Fatal("❌ No se pudo inicializar el repositorio de tickets", zap.Error(err))
	}
	motor := engine.New(catalogo, logger)
	hub := realtime.NewHub(logger)
	ticketService := tickets.NewService(ticketRepo, stockLedger, catalogo, motor, hub, logger)

	// Handlers
	ticketHandler := handlers.NewTicketHandler(ticketService, logger)
	stockHandler := handlers.NewStockHandler(stockLedger, catalogo, logger)
	healthChecker := middleware.NewHealthChecker(postgresDB, redisDB, precioCache, logger)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.OrganizacionMiddleware())

	routes.SetupRoutes(router, ticketHandler, stockHandler, hub, healthChecker)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		middleware.ServerInfo(cfg.Server.Port, logger)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("❌ Error en el servidor HTTP", zap.Error(err))
		}
	}()

	// Apagado ordenado
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Apagando servidor...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("❌ Apagado forzado", zap.Error(err))
	}
	logger.Info("Servidor detenido")
}

// buildLogger construye el logger según el nivel configurado.
func buildLogger(level string) *zap.Logger {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	return logger
}
