// Package chat implements the answer engine: retrieval, relevance
// filtering, prompt assembly with conversation history, and generation.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"mdchat/internal/domain"
)

// Defaults for the retrieval side. Configurable, not invariants: the
// useful threshold depends on the embedding provider's score
// distribution.
const (
	DefaultTopK           = 3
	DefaultScoreThreshold = 0.5
)

// Options tunes one engine instance.
type Options struct {
	TopK           int
	ScoreThreshold float64
}

// Engine answers questions against a loaded index for a single session.
// It owns the session's append-only history; calls against the same
// engine are serialized so history mutation never interleaves.
type Engine struct {
	mu        sync.Mutex
	store     domain.Storage // nil when the index is unavailable
	embedder  domain.Embedder
	generator domain.Generator
	topK      int
	threshold float64
	history   []domain.Turn
	log       *zap.Logger
}

// Answer is a successful response with the sources that backed it.
type Answer struct {
	Text    string
	Sources []string
}

// NewEngine creates an engine bound to the given index. A nil store
// means the index is unavailable: the engine still works, answering
// every question with the fixed not-loaded message.
func NewEngine(store domain.Storage, embedder domain.Embedder, generator domain.Generator, opts Options, log *zap.Logger) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.ScoreThreshold <= 0 {
		opts.ScoreThreshold = DefaultScoreThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store:     store,
		embedder:  embedder,
		generator: generator,
		topK:      opts.TopK,
		threshold: opts.ScoreThreshold,
		log:       log,
	}
}

// Answer retrieves nearby chunks, keeps those strictly under the
// relevance threshold, prompts the generator with the session history
// and the surviving context, and appends the turn on success. Failures
// come back as *Error values; nothing escapes as a panic.
func (e *Engine) Answer(ctx context.Context, query string) (Answer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.store == nil {
		return Answer{}, &Error{Kind: KindIndexUnavailable}
	}

	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return Answer{}, &Error{Kind: KindRetrieval, Err: fmt.Errorf("embed query: %w", err)}
	}
	if len(vectors) == 0 {
		return Answer{}, &Error{Kind: KindRetrieval, Err: fmt.Errorf("embedder returned no vector")}
	}
	results, err := e.store.Search(ctx, vectors[0], e.topK)
	if err != nil {
		return Answer{}, &Error{Kind: KindRetrieval, Err: fmt.Errorf("similarity search: %w", err)}
	}

	// Strictly below the threshold keeps; scores are distances.
	var kept []domain.SearchResult
	for _, r := range results {
		if r.Score < e.threshold {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return Answer{}, &Error{Kind: KindNoResults}
	}

	prompt := e.buildPrompt(query, kept)
	text, err := e.generator.Complete(ctx, prompt)
	if err != nil {
		return Answer{}, &Error{Kind: KindGeneration, Err: err}
	}

	e.history = append(e.history, domain.Turn{Question: query, Answer: text})
	e.log.Debug("answered",
		zap.Int("context_chunks", len(kept)),
		zap.Int("history_turns", len(e.history)))
	return Answer{Text: text, Sources: sourcesOf(kept)}, nil
}

// History returns a copy of the session's turns in chronological order.
func (e *Engine) History() []domain.Turn {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Turn, len(e.history))
	copy(out, e.history)
	return out
}

var braceEscaper = strings.NewReplacer("{", "{{", "}", "}}")

// buildPrompt combines the history block, the new query and the context
// block. Literal braces in retrieved context are escaped so they cannot
// be mistaken for template placeholders downstream.
func (e *Engine) buildPrompt(query string, kept []domain.SearchResult) string {
	historyLines := make([]string, len(e.history))
	for i, t := range e.history {
		historyLines[i] = fmt.Sprintf("User: %s\nBot: %s", t.Question, t.Answer)
	}
	contextTexts := make([]string, len(kept))
	for i, r := range kept {
		contextTexts[i] = r.Chunk.Text
	}
	docContext := braceEscaper.Replace(strings.Join(contextTexts, "\n"))
	return fmt.Sprintf("Here is the conversation history:\n%s\n\nNow answer:\n%s\n\nContext: %s",
		strings.Join(historyLines, "\n"), query, docContext)
}

// sourcesOf lists distinct source paths in retrieval order.
func sourcesOf(kept []domain.SearchResult) []string {
	seen := make(map[string]struct{}, len(kept))
	var out []string
	for _, r := range kept {
		if r.Chunk.Source == "" {
			continue
		}
		if _, ok := seen[r.Chunk.Source]; ok {
			continue
		}
		seen[r.Chunk.Source] = struct{}{}
		out = append(out, r.Chunk.Source)
	}
	return out
}
