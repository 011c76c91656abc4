package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yoockh/hotelbridge/config"
	"github.com/yoockh/hotelbridge/internal/api/handlers"
	"github.com/yoockh/hotelbridge/internal/api/middleware"
	"github.com/yoockh/hotelbridge/internal/api/routes"
	"github.com/yoockh/hotelbridge/internal/cache"
	"github.com/yoockh/hotelbridge/internal/logger"
	"github.com/yoockh/hotelbridge/internal/providers/agent"
	"github.com/yoockh/hotelbridge/internal/repositories/sqlstore"
	"github.com/yoockh/hotelbridge/internal/services"
	"github.com/yoockh/hotelbridge/internal/workers"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Server port (default $PORT or 8080)")
	return cmd
}

func serve(cfg config.App) error {
	log := logger.New()
	sinks := logger.NewSinks(log, cfg.LogDir)
	defer sinks.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init records database
	if err := config.InitDatabase(); err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	defer config.CloseDatabase()
	log.WithField("dialect", config.DB.Dialector.Name()).Info("database connected")

	// Slide store and live fan-out
	var slideCache cache.Cache = cache.NewMemoryCache()
	var notifier workers.SlideNotifier = workers.NewMemoryNotifier()
	if cfg.SlideStore == config.SlideStoreRedis {
		if err := config.InitRedis(ctx); err != nil {
			return fmt.Errorf("redis init: %w", err)
		}
		defer config.CloseRedis()
		slideCache = cache.NewRedisCache(config.RedisClient, cfg.RedisPrefix)
		notifier = workers.NewRedisNotifier(config.RedisClient, sinks.Category(logger.CategorySlides))
		log.Info("redis connected")
	}

	a := agent.NewHTTPAgent(cfg.Agent, sinks.Category(logger.CategoryAgent))
	if !a.Configured() {
		log.Warn("AI_AGENT_API_URL is not set; webhooks will answer with an apology")
	}

	slides := services.NewSlideService(cache.NewSlideStore(slideCache), notifier, sinks.Category(logger.CategorySlides))
	br := services.NewBridgeService(a, slides, log)
	records := services.NewRecordService(sqlstore.NewRecordRepo(config.DB), log)

	if n, err := records.Seed(ctx, cfg.SeedDir); err != nil {
		return fmt.Errorf("seed records: %w", err)
	} else if n > 0 {
		log.WithField("count", n).Info("hotel records seeded")
	}

	webhookLog := sinks.Category(logger.CategoryWebhooks)

	gin.SetMode(ginMode())
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Webhook:       handlers.NewWebhookHandler(br, slides, webhookLog),
		Slides:        handlers.NewSlideHandler(slides, sinks.Category(logger.CategorySlides)),
		Records:       handlers.NewRecordHandler(records),
		Twilio:        handlers.NewTwilioHandler(br, routes.TwilioVoicePath, webhookLog),
		WebhookSecret: cfg.WebhookSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "slide_store": cfg.SlideStore}).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func ginMode() string {
	if m := os.Getenv("GIN_MODE"); m != "" {
		return m
	}
	return gin.ReleaseMode
}
