package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sheetforge/internal/artifact"
	"sheetforge/internal/config"
	"sheetforge/internal/llm"
	"sheetforge/internal/llmclient"
	"sheetforge/internal/prompt"
	"sheetforge/internal/runstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	var base llmclient.LLMClient
	if os.Getenv("GEMINI_API_KEY") != "" {
		base, err = llmclient.NewGeminiClient(ctx, cfg.Model)
		if err != nil {
			log.Fatalf("gemini client: %v", err)
		}
	} else {
		log.Printf("GEMINI_API_KEY is not set; using the offline fake client")
		base = llm.NewFakeClient()
	}
	client := llm.Wrap(base,
		llm.WithLogging(log.Default()),
		llm.WithUsageLedger("llm_usage.json"),
		llm.Retry(3, 2*time.Second),
		llm.RateLimit(1, 2),
	)
	defer client.Close()

	prompts, err := prompt.NewDefault()
	if err != nil {
		log.Fatalf("prompts: %v", err)
	}

	var store artifact.Store
	if cfg.Artifact.Enabled {
		s3, err := artifact.NewS3Store(artifact.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			log.Printf("artifact store unavailable, falling back to memory: %v", err)
			store = artifact.NewMemoryStore()
		} else {
			store = s3
		}
	} else {
		store = artifact.NewMemoryStore()
	}

	runs := runstore.NewFromEnv(cfg.RunStorePath)
	defer runs.Close()

	app := NewApp(cfg, client, prompts, store, runs, log.Default())
	srv := NewServer(cfg.Port, app.Routes())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("server: %v", err)
	}
	runs.Save()
}
