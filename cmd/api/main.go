package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/chara-chat/backend/internal/config"
	"github.com/zhouzirui/chara-chat/backend/internal/handler"
	"github.com/zhouzirui/chara-chat/backend/internal/service/ai"
	"github.com/zhouzirui/chara-chat/backend/internal/service/character"
	"github.com/zhouzirui/chara-chat/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Character documents
	characters := character.NewOsFileStore(cfg.Characters.Dir)
	if err := characters.Reload(); err != nil {
		log.Printf("warning: characters unavailable until %s can be read", cfg.Characters.Dir)
	}
	if cfg.Characters.Watch {
		go func() {
			if err := characters.Watch(ctx); err != nil {
				log.Printf("warning: character hot reload disabled: %v", err)
			}
		}()
	}

	aiService := ai.NewServiceFromConfig(ctx, cfg.AI)
	chatService := chat.NewService()

	router := handler.NewRouter(handler.Deps{
		Characters:  characters,
		Chat:        chatService,
		Responder:   chat.NewCharacterResponder(characters, aiService),
		AIAvailable: aiService.Available(),
		CORSOrigins: cfg.Server.CORSOrigins,
		StaticDir:   cfg.Server.StaticDir,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("character chat backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
