// Command mdchat-index builds the persisted similarity index from a
// directory of Markdown files.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mdchat/internal/chunker"
	"mdchat/internal/config"
	"mdchat/internal/domain"
	embopenai "mdchat/internal/embedding/openai"
	"mdchat/internal/embedding/tfidf"
	"mdchat/internal/index"
	"mdchat/internal/loader"
	"mdchat/internal/vectorstore/flat"
	"mdchat/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, docsDir, indexDir string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&docsDir, "docs", "", "Directory of Markdown files (overrides config)")
	flag.StringVar(&indexDir, "out", "", "Index output directory (overrides config)")
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
	if docsDir == "" {
		docsDir = cfg.DocsPath
	}
	if indexDir == "" {
		indexDir = cfg.Index.Path
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	embedder := buildEmbedder(cfg)
	store := buildStore(cfg)
	ch := chunker.NewMarkdownChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	ld := loader.New(logger.Named("loader"))

	builder := index.NewBuilder(ld, ch, embedder, store, logger.Named("builder"))
	if err := builder.Build(context.Background(), docsDir, indexDir); err != nil {
		log.Fatalf("index build failed: %v", err)
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

func buildStore(cfg *config.AppConfig) domain.Storage {
	switch cfg.VectorStore.Type {
	case "flat", "":
		return flat.New()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}
	return nil
}
