package domain

import "errors"

// Domain errors represent business outcomes of the indexing pipeline.
// Infrastructure failures are wrapped separately at the call sites.
var (
	// ErrIndexMissing indicates the persisted index file does not exist.
	// Distinct from a generic load failure so serving can degrade cleanly.
	ErrIndexMissing = errors.New("index file missing")

	// ErrNoDocuments indicates the source directory held no Markdown files.
	ErrNoDocuments = errors.New("no markdown documents found")

	// ErrNoChunks indicates chunking produced nothing to index.
	ErrNoChunks = errors.New("no chunks produced")
)
