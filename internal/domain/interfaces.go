package domain

import "context"

// Document is a single Markdown file loaded into the system, with its
// markup already reduced to plain text.
type Document struct {
	Path    string
	Content string
}

// Chunk is a bounded-length span of a document, the unit of embedding
// and retrieval.
type Chunk struct {
	ID     string
	Source string
	Text   string
	Index  int
}

// SearchResult pairs a stored chunk with a distance score.
// Lower scores mean closer matches.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Turn is one completed question/answer exchange in a session.
type Turn struct {
	Question string
	Answer   string
}

// Embedder converts free text into numeric vector representations.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Storage persists vectors and supports similarity search.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
}

// Generator turns a prompt into completion text via a language model.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
