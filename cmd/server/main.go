package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/npezzotti/go-chatrelay/internal/api"
	"github.com/npezzotti/go-chatrelay/internal/config"
	"github.com/npezzotti/go-chatrelay/internal/database"
	"github.com/npezzotti/go-chatrelay/internal/notify"
	"github.com/npezzotti/go-chatrelay/internal/server"
	"github.com/npezzotti/go-chatrelay/internal/stats"
)

const notifyQueueSize = 1024

var (
	addr           string
	dsn            string
	allowedOrigins string
	pushURL        string
	pushWorkers    int
	uploadDir      string
	publicURL      string
)

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	flag.StringVar(&addr, "addr", envOr("ADDR", "localhost:8000"), "server address")
	flag.StringVar(&dsn, "dsn", envOr("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"), "database connection string")
	flag.StringVar(&allowedOrigins, "allowed-origins", envOr("ALLOWED_ORIGINS", "*"), "comma-separated list of allowed origins for CORS and websocket upgrades")
	flag.StringVar(&pushURL, "push-url", envOr("PUSH_URL", ""), "push notification endpoint, empty disables push (e.g. "+notify.DefaultPushURL+")")
	flag.IntVar(&pushWorkers, "push-workers", envIntOr("PUSH_WORKERS", 4), "number of push notification workers")
	flag.StringVar(&uploadDir, "upload-dir", envOr("UPLOAD_DIR", "uploads"), "directory for uploaded audio files")
	flag.StringVar(&publicURL, "public-url", envOr("PUBLIC_URL", ""), "base URL for uploaded file links, defaults to the request host")
	flag.Parse()

	logger := log.New(os.Stderr, "[go-chatrelay] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, config.ParseOrigins(allowedOrigins),
		config.WithPush(pushURL, pushWorkers),
		config.WithUploads(uploadDir, publicURL),
	)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgChatRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	if err := dbConn.Migrate(); err != nil {
		logger.Fatal("db migrate:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)
	statsUpdater.Publish("chatrelay")

	notifyCtx, stopNotify := context.WithCancel(context.Background())
	defer stopNotify()

	var notifier notify.Notifier = notify.Discard{}
	if cfg.PushURL != "" {
		dispatcher := notify.NewDispatcher(logger, dbConn, notify.NewPushClient(cfg.PushURL, nil), cfg.PushWorkers, notifyQueueSize)
		dispatcher.Run(notifyCtx)
		defer dispatcher.Wait()
		notifier = dispatcher
		logger.Printf("push notifications enabled via %s", cfg.PushURL)
	}

	chatServer, err := server.NewChatServer(logger, dbConn, statsUpdater, notifier)
	if err != nil {
		logger.Fatal("new chat server:", err)
	}

	srv := api.NewChatRelayApp(mux, logger, chatServer, dbConn, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go chatServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Println("HTTP server shutdown:", err)
	}

	logger.Println("shutting down chat server...")
	if err := chatServer.Shutdown(shutDownCtx); err != nil {
		logger.Println("chat server shutdown:", err)
	}

	stopNotify()
	logger.Println("shutdown complete")
}
