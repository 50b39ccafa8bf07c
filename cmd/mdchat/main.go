// Command mdchat is a local terminal chat client over the persisted
// index, bypassing the HTTP layer.
package main

import (
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mdchat/internal/chat"
	"mdchat/internal/config"
	"mdchat/internal/domain"
	embopenai "mdchat/internal/embedding/openai"
	"mdchat/internal/embedding/tfidf"
	genopenai "mdchat/internal/generation/openai"
	"mdchat/internal/index"
	"mdchat/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
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

	logger := zap.NewNop() // the TUI owns the terminal

	embedder := buildEmbedder(cfg)
	generator := buildGenerator(cfg)
	storage, err := index.OpenForServing(cfg, embedder, logger)
	if err != nil {
		log.Fatalf("index open failed: %v", err)
	}

	engine := chat.NewEngine(storage, embedder, generator, chat.Options{
		TopK:           cfg.Chat.TopK,
		ScoreThreshold: cfg.Chat.ScoreThreshold,
	}, logger)

	m := tui.New(engine)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
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
