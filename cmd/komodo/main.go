// Komodo core - control plane server for a fleet of Docker hosts.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/komodo-run/komodo-core/pkg/config"
	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/state"
	"github.com/komodo-run/komodo-core/pkg/update"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupLogging(cfg config.LoggingConfig) {
	level := slog.LevelInfo
	_ = level.UnmarshalText([]byte(cfg.Level))
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Pretty {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	envFile := flag.String("env-file", getEnv("KOMODO_ENV_FILE", ".env"), "Path to a .env file to load before reading KOMODO_* variables")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	setupLogging(cfg.Logging)

	ctx := context.Background()

	db, err := database.NewClient(ctx, database.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer func() {
		if err := db.Close(ctx); err != nil {
			slog.Error("error closing database client", "error", err)
		}
	}()
	slog.Info("connected to mongo", "database", cfg.Mongo.Database)

	st := state.New(cfg, db)

	recovered, err := update.RecoverIncomplete(ctx, db, update.WallClock)
	if err != nil {
		log.Fatalf("failed to recover in-progress updates: %v", err)
	}
	if recovered > 0 {
		slog.Info("recovered stale in-progress updates", "count", recovered)
	}

	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	defer cancelMonitor()
	go st.Monitor.Run(monitorCtx, cfg.MonitoringInterval)
	st.Retention.Start(ctx)
	defer st.Retention.Stop()

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		health, err := st.DB.Health(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": health})
	})

	st.API.Register(router)
	st.Webhook.Register(router)

	addr := cfg.Host + ":" + strconv.Itoa(cfg.Port)
	slog.Info("starting komodo core", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}
