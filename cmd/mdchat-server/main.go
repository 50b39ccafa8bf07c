// Command mdchat-server serves the chat API over the persisted index.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flag"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mdchat/internal/chat"
	"mdchat/internal/config"
	"mdchat/internal/domain"
	embopenai "mdchat/internal/embedding/openai"
	"mdchat/internal/embedding/tfidf"
	genopenai "mdchat/internal/generation/openai"
	"mdchat/internal/index"
	"mdchat/internal/server"
	"mdchat/internal/session"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, addr string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&addr, "addr", "", "Listen address (overrides config)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	embedder := buildEmbedder(cfg)
	generator := buildGenerator(cfg)

	// A missing index is not fatal: sessions degrade to the fixed
	// not-loaded answer until the index is built.
	storage, err := index.OpenForServing(cfg, embedder, logger.Named("index"))
	if err != nil {
		log.Fatalf("index open failed: %v", err)
	}

	opts := chat.Options{TopK: cfg.Chat.TopK, ScoreThreshold: cfg.Chat.ScoreThreshold}
	engineLog := logger.Named("engine")
	factory := func(key string) (*chat.Engine, error) {
		return chat.NewEngine(storage, embedder, generator, opts, engineLog), nil
	}
	sessions := session.NewStore(factory, session.Config{
		TTL:        time.Duration(cfg.Server.SessionTTLMins) * time.Minute,
		MaxEntries: cfg.Server.MaxSessions,
	}, logger.Named("sessions"))

	srv := server.New(sessions, logger.Named("http"))

	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := srv.Start(addr); err != nil {
			logger.Info("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func buildEmbedder(cfg *config.AppConfig) domain.Embedder {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := embopenai.NewClient(embopenai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.Embedder.OpenAI.BatchSize,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		return client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}
	return nil
}

func buildGenerator(cfg *config.AppConfig) domain.Generator {
	switch cfg.Generator.Type {
	case "openai", "":
		oc := cfg.Generator.OpenAI
		if oc == nil {
			oc = &config.OpenAIGeneratorConfig{}
		}
		client, err := genopenai.NewClient(genopenai.Config{
			BaseURL:     oc.BaseURL,
			APIKeyEnv:   oc.APIKeyEnv,
			Model:       oc.Model,
			Temperature: oc.Temperature,
			Timeout:     time.Duration(oc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai generator init failed: %v", err)
		}
		return client
	default:
		log.Fatalf("unknown generator: %s", cfg.Generator.Type)
	}
	return nil
}
