package driven

import "context"

// TextSource produces the raw text for a non-web content source.
// The handle's meaning is source-specific: a repository URL for github,
// already-extracted document text for pdf (byte extraction happens in the
// surrounding application).
type TextSource interface {
	// FetchText resolves a source handle to plain text
	FetchText(ctx context.Context, handle string) (string, error)
}
