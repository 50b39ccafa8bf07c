// Package index wires the offline pipeline (load, chunk, embed, persist)
// and the serve-time loading of the persisted index.
package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mdchat/internal/domain"
)

// Persister is implemented by stores that write themselves into an index
// directory. Remote backends persist server-side and skip this.
type Persister interface {
	Save(dir string) error
}

// StateSaver is implemented by embedders whose fitted state must live
// alongside the index (the TF-IDF vectorizer).
type StateSaver interface {
	SaveState(dir string) error
}

// StateLoader is the serve-time counterpart of StateSaver.
type StateLoader interface {
	LoadState(dir string) error
}

// Builder runs the offline document-to-index pipeline.
type Builder struct {
	loader   DocumentLoader
	chunker  domain.Chunker
	embedder domain.Embedder
	store    domain.Storage
	log      *zap.Logger
}

// DocumentLoader is the loader-facing dependency of the builder.
type DocumentLoader interface {
	Load(root string) ([]domain.Document, error)
}

func NewBuilder(loader DocumentLoader, chunker domain.Chunker, embedder domain.Embedder, store domain.Storage, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{loader: loader, chunker: chunker, embedder: embedder, store: store, log: log}
}

// Build loads Markdown documents from docsDir, chunks and embeds them,
// fills the store and persists everything under indexDir, overwriting
// any index already there. An empty corpus fails loudly: there is
// nothing to index.
func (b *Builder) Build(ctx context.Context, docsDir, indexDir string) error {
	docs, err := b.loader.Load(docsDir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("%s: %w", docsDir, domain.ErrNoDocuments)
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		cs, err := b.chunker.Chunk(doc)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", doc.Path, err)
		}
		chunks = append(chunks, cs...)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("%s: %w", docsDir, domain.ErrNoChunks)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	if err := b.embedder.Prepare(ctx, texts); err != nil {
		return fmt.Errorf("prepare embedder: %w", err)
	}
	vectors, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	dimension := b.embedder.Dimension()
	if dimension == 0 && len(vectors) > 0 {
		dimension = len(vectors[0])
	}

	if err := b.store.Init(ctx, dimension); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	if err := b.store.Upsert(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	if p, ok := b.store.(Persister); ok {
		if err := p.Save(indexDir); err != nil {
			return fmt.Errorf("persist index: %w", err)
		}
	}
	if s, ok := b.embedder.(StateSaver); ok {
		if err := s.SaveState(indexDir); err != nil {
			return fmt.Errorf("persist embedder state: %w", err)
		}
	}

	b.log.Info("index built",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimension", dimension),
		zap.String("index_dir", indexDir))
	return nil
}
