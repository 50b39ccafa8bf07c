// Package loader walks a directory tree and turns Markdown files into
// plain-text documents ready for chunking.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"mdchat/internal/domain"
)

// Loader reads Markdown files from a directory tree.
type Loader struct {
	exts map[string]struct{}
	log  *zap.Logger
}

// New creates a loader accepting .md and .markdown files.
func New(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		exts: map[string]struct{}{".md": {}, ".markdown": {}},
		log:  log,
	}
}

// Load recursively reads all Markdown files under root and returns them
// with markup stripped, in lexical path order. A missing or unreadable
// root is an error; a root with zero Markdown files is not (the caller
// decides whether that is fatal).
func (l *Loader) Load(root string) ([]domain.Document, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("docs directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs path %s is not a directory", root)
	}
	var docs []domain.Document
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := l.exts[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		docs = append(docs, domain.Document{
			Path:    path,
			Content: StripMarkdown(string(data)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("loaded markdown files", zap.Int("count", len(docs)), zap.String("root", root))
	return docs, nil
}
