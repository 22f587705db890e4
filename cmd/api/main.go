package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emilythestrangee/community-forum/backend/internal/config"
	"github.com/emilythestrangee/community-forum/backend/internal/database"
	"github.com/emilythestrangee/community-forum/backend/internal/handlers"
	"github.com/emilythestrangee/community-forum/backend/internal/mail"
	"github.com/emilythestrangee/community-forum/backend/internal/media"
	"github.com/emilythestrangee/community-forum/backend/internal/server"
	"github.com/emilythestrangee/community-forum/backend/internal/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.DB)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database", "name", cfg.DB.Name)

	mediaStore, err := media.NewMinioStore(cfg.MinIO)
	if err != nil {
		logger.Error("failed to initialize media store", "error", err)
		os.Exit(1)
	}

	var sms mail.Sender
	if cfg.Twilio.AccountSID != "" {
		sms = mail.NewSMSSender(cfg.Twilio)
	}
	mailer := mail.NewDispatcher(mail.NewSMTPSender(cfg.SMTP), sms)

	membership := services.NewMembershipService(db)
	auth := services.NewAuthService(db, mailer, cfg.JWTSecret, cfg.BcryptCost)
	content := services.NewContentService(db, membership)
	votes := services.NewVoteService(db, membership, logger)

	handler := handlers.NewHandler(auth, membership, content, votes, mediaStore, logger)
	srv := server.New(cfg, db, handler)

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to gracefully shutdown server", "error", err)
	}
	logger.Info("server stopped")
}
