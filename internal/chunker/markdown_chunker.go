// Package chunker splits documents into bounded-size chunks, preferring
// Markdown header boundaries before falling back to size-based splitting.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"mdchat/internal/domain"
)

// Default splitting configuration, matching the index build entry point.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// separators are tried in order of decreasing granularity: paragraph,
// line, sentence, word. Text that still exceeds the chunk size after the
// last separator is cut into fixed rune windows.
var separators = []string{"\n\n", "\n", ". ", " "}

var headerRe = regexp.MustCompile(`^#{1,6}\s`)

// MarkdownChunker splits a document on ATX headers first, then re-splits
// each header-delimited section recursively until every chunk fits the
// configured size, inserting overlap between adjacent size-split pieces.
type MarkdownChunker struct {
	chunkSize int
	overlap   int
}

func NewMarkdownChunker(chunkSize, overlap int) *MarkdownChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &MarkdownChunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk produces the ordered chunk sequence for one document. An empty
// document yields zero chunks; a document with no headers is treated as
// one section covering the whole text.
func (c *MarkdownChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}
	var chunks []domain.Chunk
	idx := 0
	for _, section := range splitByHeaders(doc.Content) {
		for _, piece := range c.split(section, separators) {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				ID:     uuid.NewString(),
				Source: doc.Path,
				Text:   piece,
				Index:  idx,
			})
			idx++
		}
	}
	return chunks, nil
}

// splitByHeaders groups lines into sections, each starting at an ATX
// header line. Content before the first header forms its own section.
func splitByHeaders(content string) []string {
	var sections []string
	var current []string
	for _, line := range strings.Split(content, "\n") {
		if headerRe.MatchString(line) {
			if len(current) > 0 {
				sections = append(sections, strings.Join(current, "\n"))
			}
			current = []string{line}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}
	return sections
}

// split recursively bounds text to the chunk size using the separator
// hierarchy, then merges small pieces back together with overlap.
func (c *MarkdownChunker) split(text string, seps []string) []string {
	if utf8.RuneCountInString(text) <= c.chunkSize {
		return []string{text}
	}
	if len(seps) == 0 {
		return c.windows(text)
	}
	sep, rest := seps[0], seps[1:]
	if !strings.Contains(text, sep) {
		return c.split(text, rest)
	}
	var pieces []string
	for _, part := range splitAfter(text, sep) {
		if utf8.RuneCountInString(part) > c.chunkSize {
			pieces = append(pieces, c.split(part, rest)...)
		} else {
			pieces = append(pieces, part)
		}
	}
	return c.merge(pieces)
}

// splitAfter splits on sep keeping the separator attached to the left
// piece, so joining the pieces reproduces the input exactly.
func splitAfter(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	// SplitAfter may leave a trailing empty piece when text ends in sep.
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}

// merge greedily packs consecutive pieces into chunks of at most
// chunkSize runes. Each new chunk is seeded with the tail of the
// previous one so context survives the boundary.
func (c *MarkdownChunker) merge(pieces []string) []string {
	var out []string
	var cur strings.Builder
	curLen := 0
	seedLen := 0
	for _, p := range pieces {
		pl := utf8.RuneCountInString(p)
		if curLen > seedLen && curLen+pl > c.chunkSize {
			chunk := cur.String()
			out = append(out, chunk)
			seed := tailRunes(chunk, c.overlap)
			cur.Reset()
			cur.WriteString(seed)
			curLen = utf8.RuneCountInString(seed)
			seedLen = curLen
		}
		if curLen+pl > c.chunkSize {
			// Even the overlap seed does not leave room; start clean.
			cur.Reset()
			curLen = 0
			seedLen = 0
		}
		cur.WriteString(p)
		curLen += pl
	}
	if curLen > seedLen || (curLen > 0 && len(out) == 0) {
		out = append(out, cur.String())
	}
	return out
}

// windows cuts text into fixed-size rune windows stepping by
// chunkSize-overlap, the last-resort splitter when no separator fits.
func (c *MarkdownChunker) windows(text string) []string {
	runes := []rune(text)
	step := c.chunkSize - c.overlap
	if step <= 0 {
		step = c.chunkSize
	}
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
