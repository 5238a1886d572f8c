package sources

import (
	"context"
	"strings"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TextSource = (*RawTextSource)(nil)

// RawTextSource serves pdf ingestion, where clients upload text already
// extracted from the document. The handle IS the text.
type RawTextSource struct{}

// NewRawTextSource creates a new RawTextSource
func NewRawTextSource() *RawTextSource {
	return &RawTextSource{}
}

// FetchText returns the handle itself, trimmed.
func (s *RawTextSource) FetchText(ctx context.Context, handle string) (string, error) {
	text := strings.TrimSpace(handle)
	if text == "" {
		return "", domain.ErrInvalidInput
	}
	return text, nil
}
