package index

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mdchat/internal/config"
	"mdchat/internal/domain"
	"mdchat/internal/vectorstore/flat"
	"mdchat/internal/vectorstore/qdrant"
)

// Open loads the flat index from dir and, when the embedder keeps fitted
// state (TF-IDF), restores it from the same directory.
func Open(dir string, embedder domain.Embedder) (domain.Storage, error) {
	st, err := flat.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := restoreEmbedderState(dir, embedder); err != nil {
		return nil, err
	}
	return st, nil
}

// restoreEmbedderState reloads the fitted vectorizer written at build
// time, so serve-time queries embed against the same vocabulary. A
// no-op for embedders without persisted state.
func restoreEmbedderState(dir string, embedder domain.Embedder) error {
	if l, ok := embedder.(StateLoader); ok {
		return l.LoadState(dir)
	}
	return nil
}

// OpenForServing resolves the configured backend for the serve path.
// Unavailability (missing index file, unreachable collection) is not an
// error here: it returns a nil storage and the engine degrades to its
// fixed not-loaded answer. A misconfigured backend type is an error.
func OpenForServing(cfg *config.AppConfig, embedder domain.Embedder, log *zap.Logger) (domain.Storage, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.VectorStore.Type {
	case "flat", "":
		st, err := Open(cfg.Index.Path, embedder)
		if err != nil {
			if errors.Is(err, domain.ErrIndexMissing) {
				log.Warn("index not found; chat will answer with the not-loaded message",
					zap.String("path", cfg.Index.Path))
			} else {
				log.Error("index load failed", zap.String("path", cfg.Index.Path), zap.Error(err))
			}
			return nil, nil
		}
		return st, nil
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, errors.New("qdrant vector store config missing")
		}
		st := qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			log.Warn("qdrant collection unavailable; chat will answer with the not-loaded message",
				zap.String("collection", cfg.VectorStore.Qdrant.Collection), zap.Error(err))
			return nil, nil
		}
		// The embedder's fitted state still lives in the index directory
		// even when the vectors do not.
		if err := restoreEmbedderState(cfg.Index.Path, embedder); err != nil {
			log.Warn("embedder state unavailable; chat will answer with the not-loaded message",
				zap.String("path", cfg.Index.Path), zap.Error(err))
			return nil, nil
		}
		return st, nil
	default:
		return nil, errors.New("unknown vector store: " + cfg.VectorStore.Type)
	}
}
