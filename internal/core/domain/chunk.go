package domain

import "time"

// Default chunking parameters. Overlap must stay below size.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 50
)

// Chunk is the atomic unit of indexing: a bounded text span plus the
// identifier of the source it came from. Chunks are written once and
// never mutated.
type Chunk struct {
	// Content is the chunk text, at most the configured chunk size
	// except for an unavoidable final remainder
	Content string `json:"content"`

	// Source identifies where the text came from (seed URL, repo URL,
	// or document name)
	Source string `json:"source"`
}

// IngestResult reports the outcome of one ingestion run. Partial success
// is expected: failed writes are counted, not fatal.
type IngestResult struct {
	TenantID      string        `json:"tenant_id"`
	Kind          SourceKind    `json:"kind"`
	Partition     string        `json:"partition"`
	ChunksWritten int           `json:"chunks_written"`
	ChunksFailed  int           `json:"chunks_failed"`
	Took          time.Duration `json:"took"`
}
