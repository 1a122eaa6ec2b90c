package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gonkalabs/gonka-redact-go/internal/api"
	"github.com/gonkalabs/gonka-redact-go/internal/config"
	"github.com/gonkalabs/gonka-redact-go/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	proc, err := pipeline.FromConfig(cfg)
	if err != nil {
		slog.Error("pipeline setup error", "err", err)
		os.Exit(1)
	}

	handler := api.New(proc, cfg.MaxUploadSize)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.Router(handler, cfg.CORSOrigins),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)

		shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutCancel()

		if err := srv.Shutdown(shutCtx); err != nil {
			slog.Error("shutdown error", "err", err)
		}
	}()

	slog.Info("starting redaction server",
		"addr", cfg.ListenAddr,
		"ner", cfg.NERBackend,
		"ocr", proc.OCR.Name(),
		"languages", cfg.OCRLanguages,
		"workers", cfg.Workers,
		"coalesce", cfg.Coalesce,
		"signing", proc.Signer != nil,
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
