// cmd/advisory-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"smartbharat-functions/internal/advisory"
	"smartbharat-functions/internal/alerts"
	"smartbharat-functions/internal/common/config"
	"smartbharat-functions/internal/common/database"
	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/common/observability"
	"smartbharat-functions/internal/gemini"
	"smartbharat-functions/internal/openweather"
	"smartbharat-functions/internal/server"
	"smartbharat-functions/internal/store"

	assistantfn "smartbharat-functions/internal/functions/assistant"
	cropadv "smartbharat-functions/internal/functions/crop-advisories"
	cropanalysisfn "smartbharat-functions/internal/functions/crop-analysis"
	cropcal "smartbharat-functions/internal/functions/crop-calendar"
	marketadv "smartbharat-functions/internal/functions/market-advisory"
	weatherfn "smartbharat-functions/internal/functions/weather"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting advisory server...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("advisory-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- External clients ---
	geminiClient := gemini.NewClient(gemini.Config{
		BaseURL:    cfg.APIs.Gemini.BaseURL,
		APIKey:     cfg.APIs.Gemini.APIKey,
		Model:      cfg.APIs.Gemini.Model,
		MaxRetries: config.GetFunctionConfig(cfg, marketadv.FunctionName).MaxRetries,
		Timeout:    config.GetDuration(cfg.APIs.Gemini.Timeout),
	}, log)

	weatherClient := openweather.NewClient(openweather.Config{
		BaseURL: cfg.APIs.OpenWeather.BaseURL,
		APIKey:  cfg.APIs.OpenWeather.APIKey,
		Timeout: config.GetDuration(cfg.APIs.OpenWeather.Timeout),
	}, log)

	dataStore := store.New(pg.GetDB(), log)

	var dispatcher *alerts.Dispatcher
	if cfg.Alerts.Email.Enabled || cfg.Alerts.SMS.Enabled {
		dispatcher, err = alerts.NewDispatcher(cfg.Alerts, log)
		if err != nil {
			zapLog.Fatal("alert dispatcher init failed", zap.Error(err))
		}
		zapLog.Info("Alert dispatcher initialized")
	}

	// --- Function handlers ---
	var handlers server.Handlers

	if fnCfg := config.GetFunctionConfig(cfg, marketadv.FunctionName); fnCfg.Enabled {
		cache := newCache(fnCfg, pg, rdb, log)
		pipeline, err := marketadv.NewPipeline(geminiClient, cache, log)
		if err != nil {
			zapLog.Fatal("market-advisory pipeline init failed", zap.Error(err))
		}
		handlerCfg := marketadv.LoadConfig()
		handlerCfg.Timeout = config.GetDuration(fnCfg.Timeout)
		handlers.MarketAdvisory = marketadv.NewHandler(handlerCfg, pipeline, log).Handle
	}

	if fnCfg := config.GetFunctionConfig(cfg, cropadv.FunctionName); fnCfg.Enabled {
		cache := newCache(fnCfg, pg, rdb, log)
		pipeline, err := cropadv.NewPipeline(geminiClient, cache, log)
		if err != nil {
			zapLog.Fatal("crop-advisories pipeline init failed", zap.Error(err))
		}
		handlerCfg := cropadv.LoadConfig()
		handlerCfg.Timeout = config.GetDuration(fnCfg.Timeout)
		handlers.CropAdvisories = cropadv.NewHandler(handlerCfg, pipeline, log).Handle
	}

	if fnCfg := config.GetFunctionConfig(cfg, cropcal.FunctionName); fnCfg.Enabled {
		pipeline, err := cropcal.NewPipeline(geminiClient, log)
		if err != nil {
			zapLog.Fatal("crop-calendar pipeline init failed", zap.Error(err))
		}
		handlerCfg := cropcal.LoadConfig()
		handlerCfg.Timeout = config.GetDuration(fnCfg.Timeout)
		handlers.CropCalendar = cropcal.NewHandler(handlerCfg, pipeline, log).Handle
	}

	if fnCfg := config.GetFunctionConfig(cfg, assistantfn.FunctionName); fnCfg.Enabled {
		pipeline, err := assistantfn.NewPipeline(geminiClient, log)
		if err != nil {
			zapLog.Fatal("assistant pipeline init failed", zap.Error(err))
		}
		handlerCfg := assistantfn.LoadConfig()
		handlerCfg.Timeout = config.GetDuration(fnCfg.Timeout)
		handlers.Assistant = assistantfn.NewHandler(handlerCfg, pipeline, log).Handle
	}

	if fnCfg := config.GetFunctionConfig(cfg, cropanalysisfn.FunctionName); fnCfg.Enabled {
		handlerCfg := cropanalysisfn.LoadConfig()
		handlerCfg.Timeout = config.GetDuration(fnCfg.Timeout)
		handlers.CropAnalysis = cropanalysisfn.NewHandler(handlerCfg, geminiClient, dataStore, dispatcherOrNil(dispatcher), log).Handle
	}

	if fnCfg := config.GetFunctionConfig(cfg, weatherfn.FunctionName); fnCfg.Enabled {
		handlerCfg := weatherfn.LoadConfig()
		handlerCfg.Timeout = config.GetDuration(fnCfg.Timeout)
		handlers.Weather = weatherfn.NewHandler(handlerCfg, weatherClient, dataStore, weatherDispatcherOrNil(dispatcher), log).Handle
	}

	router := server.New(handlers, server.Dependencies{
		Logger:        log,
		Observability: obs,
		Postgres:      pg,
		Redis:         rdb,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Advisory server stopped gracefully")
}

// newCache builds a gateway when the function caches, nil otherwise.
func newCache(fnCfg config.FunctionConfig, pg *database.PostgresClient, rdb *database.RedisClient, log logger.Logger) *advisory.CacheGateway {
	if !fnCfg.CacheEnabled {
		return nil
	}
	window := time.Duration(fnCfg.CacheTTLHours) * time.Hour
	return advisory.NewCacheGateway(pg.GetDB(), rdb.GetClient(), window, log)
}

// A typed nil *alerts.Dispatcher must not end up as a non-nil interface.
func dispatcherOrNil(d *alerts.Dispatcher) cropanalysisfn.AlertDispatcher {
	if d == nil {
		return nil
	}
	return d
}

func weatherDispatcherOrNil(d *alerts.Dispatcher) weatherfn.AlertDispatcher {
	if d == nil {
		return nil
	}
	return d
}
