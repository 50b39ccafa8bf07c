// Package flat is a brute-force vector store persisted as a single file
// inside an index directory. The whole index is loaded into memory for
// serving and is read-only from then on.
package flat

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"mdchat/internal/domain"
)

// IndexFile is the persisted index file inside the index directory.
const IndexFile = "index.gob"

// Storage holds chunks and their vectors and answers nearest-neighbour
// queries by exhaustive L2 distance.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	chunks    []domain.Chunk
}

func New() *Storage { return &Storage{} }

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.chunks = nil
	return nil
}

func (s *Storage) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Search returns the topK nearest chunks by Euclidean distance, closest
// first. Lower scores mean closer matches.
func (s *Storage) Search(_ context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 3
	}
	idxs := make([]int, len(s.vectors))
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		idxs[i] = i
		scores[i] = l2Distance(s.vectors[i], vector)
	}
	sort.Slice(idxs, func(a, b int) bool { return scores[idxs[a]] < scores[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		j := idxs[i]
		results = append(results, domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]})
	}
	return results, nil
}

// Records returns the stored (text, source) pairs in insertion order.
func (s *Storage) Records() []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// persisted is the gob-encoded on-disk form of the index.
type persisted struct {
	Dimension int
	Vectors   [][]float32
	Chunks    []domain.Chunk
}

// Save writes the index into dir, overwriting any existing index file.
func (s *Storage) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.mu.RLock()
	p := persisted{Dimension: s.dimension, Vectors: s.vectors, Chunks: s.chunks}
	s.mu.RUnlock()
	f, err := os.Create(filepath.Join(dir, IndexFile))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(&p); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

// Load reads a persisted index from dir. A missing index file yields
// domain.ErrIndexMissing, distinguishable from a corrupt one.
func Load(dir string) (*Storage, error) {
	path := filepath.Join(dir, IndexFile)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrIndexMissing)
		}
		return nil, err
	}
	defer f.Close()
	var p persisted
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	return &Storage{dimension: p.Dimension, vectors: p.Vectors, chunks: p.Chunks}, nil
}

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
