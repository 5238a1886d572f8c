package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

// DefaultSeparators is the split priority: paragraph break, line break,
// sentence terminator, space, and finally a hard character cut.
var DefaultSeparators = []string{"\n\n", "\n", ".", " ", ""}

// Chunker splits text into bounded, overlapping spans.
//
// It tries the most structural separator first and only re-splits a piece
// with the next separator when the piece still exceeds the chunk size.
// Adjacent chunks share up to Overlap characters so context survives the
// boundary. Splitting is pure: identical input and parameters always
// produce identical output.
type Chunker struct {
	size       int
	overlap    int
	separators []string
}

// New creates a Chunker. Overlap must be smaller than size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", domain.ErrInvalidInput, overlap, size)
	}
	return &Chunker{
		size:       size,
		overlap:    overlap,
		separators: DefaultSeparators,
	}, nil
}

// Default returns a Chunker with the standard 512/50 parameters.
func Default() *Chunker {
	c, _ := New(domain.DefaultChunkSize, domain.DefaultChunkOverlap)
	return c
}

// Size returns the maximum chunk length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the maximum carried overlap between adjacent chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Split breaks text into ordered chunks of at most Size characters.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return c.split(text, c.separators)
}

// Chunks splits text and tags each piece with its source identifier.
func (c *Chunker) Chunks(text, source string) []domain.Chunk {
	pieces := c.Split(text)
	chunks := make([]domain.Chunk, 0, len(pieces))
	for _, p := range pieces {
		chunks = append(chunks, domain.Chunk{Content: p, Source: source})
	}
	return chunks
}

func (c *Chunker) split(text string, separators []string) []string {
	// Pick the first separator present in the text; the empty separator
	// (hard character cut) always matches.
	sep := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" {
			sep = ""
			rest = nil
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	splits := splitOn(text, sep)

	var final []string
	var good []string
	for _, s := range splits {
		if len(s) < c.size {
			good = append(good, s)
			continue
		}
		// Flush accumulated small pieces before descending.
		if len(good) > 0 {
			final = append(final, c.merge(good, sep)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, s)
		} else {
			final = append(final, c.split(s, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, c.merge(good, sep)...)
	}
	return final
}

// splitOn splits text by sep, dropping empty pieces. The empty separator
// splits into single runes.
func splitOn(text, sep string) []string {
	var raw []string
	if sep == "" {
		raw = strings.Split(text, "")
	} else {
		raw = strings.Split(text, sep)
	}
	splits := raw[:0]
	for _, s := range raw {
		if s != "" {
			splits = append(splits, s)
		}
	}
	return splits
}

// merge packs small pieces back into chunks of at most size characters,
// sliding a window so that up to overlap characters carry over into the
// next chunk.
func (c *Chunker) merge(splits []string, sep string) []string {
	sepLen := len(sep)

	var docs []string
	var current []string
	total := 0

	for _, s := range splits {
		l := len(s)
		if total+l+sepIf(sepLen, len(current) > 0) > c.size {
			if len(current) > 0 {
				if doc := joinPieces(current, sep); doc != "" {
					docs = append(docs, doc)
				}
				// Drop pieces from the front until the retained tail
				// fits inside the overlap budget and leaves room for
				// the incoming piece.
				for total > c.overlap || (total+l+sepIf(sepLen, len(current) > 0) > c.size && total > 0) {
					total -= len(current[0]) + sepIf(sepLen, len(current) > 1)
					current = current[1:]
				}
			}
		}
		current = append(current, s)
		total += l + sepIf(sepLen, len(current) > 1)
	}

	if doc := joinPieces(current, sep); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func joinPieces(pieces []string, sep string) string {
	return strings.TrimSpace(strings.Join(pieces, sep))
}

func sepIf(sepLen int, cond bool) int {
	if cond {
		return sepLen
	}
	return 0
}
