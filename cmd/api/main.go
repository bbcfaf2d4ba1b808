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

	"github.com/prj-capstone-2025-syu/i-go-meet/internal/config"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/handler"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/service/kakao"
	meetservice "github.com/prj-capstone-2025-syu/i-go-meet/internal/service/meet"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/service/odsay"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/service/session"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/service/summary"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := session.NewMemoryStore(cfg.Meet.SessionTTL)
	kakaoClient := kakao.NewClient(cfg.Kakao)
	odsayClient := odsay.NewClient(cfg.Odsay)

	summarySvc, err := summary.NewService(ctx, cfg.AI)
	if err != nil {
		log.Printf("warning: failed to initialize summary service: %v", err)
		log.Println("continuing with templated recommendation messages")
		summarySvc = nil
	} else if summarySvc.Enabled() {
		log.Println("summary service initialized successfully")
	} else {
		log.Println("model credentials not configured, using templated recommendation messages")
	}

	var summarizer meetservice.Summarizer
	if summarySvc != nil {
		summarizer = summarySvc
	}

	meetSvc := meetservice.NewService(store, kakaoClient, kakaoClient, odsayClient, summarizer, cfg.Meet)

	router := handler.NewRouter(meetSvc)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("i-go-meet backend listening on %s", serverCfg.Addr)
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
