package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-chatrelay/internal/config"
	"github.com/npezzotti/go-chatrelay/internal/database"
	"github.com/npezzotti/go-chatrelay/internal/server"
)

type ChatRelayApp struct {
	log            *log.Logger
	db             database.ChatRepository
	mux            *http.Server
	cs             *server.ChatServer
	allowedOrigins []string
	uploadDir      string
	publicURL      string
}

func NewChatRelayApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, db database.ChatRepository, cfg *config.Config) *ChatRelayApp {
	s := &ChatRelayApp{
		log:            logger,
		db:             db,
		cs:             cs,
		allowedOrigins: cfg.AllowedOrigins,
		uploadDir:      cfg.UploadDir,
		publicURL:      cfg.PublicURL,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("GET /ws", s.serveWs)
	mux.HandleFunc("GET /api/messages/history/{user1}/{user2}", s.getHistory)
	mux.HandleFunc("POST /api/messages/seen", s.markSeen)
	mux.HandleFunc("POST /api/notification/token", s.setNotificationToken)
	mux.HandleFunc("GET /api/notification/token/{userId}", s.getNotificationToken)
	mux.HandleFunc("POST /upload-audio", s.uploadAudio)
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir))))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
	)(mux)

	h = s.errorHandler(h)

	if logger != nil {
		h = handlers.LoggingHandler(logger.Writer(), h)
	}

	s.mux = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *ChatRelayApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *ChatRelayApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
