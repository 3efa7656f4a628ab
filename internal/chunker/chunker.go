package chunker

import (
	"fmt"
	"strings"

	"github.com/liliang-cn/wikirag/internal/domain"
)

// Validate checks chunking parameters once up front so an ingestion
// request fails before any page work starts.
func Validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", domain.ErrValidation, size)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must not be negative, got %d", domain.ErrValidation, overlap)
	}
	if overlap >= size {
		return fmt.Errorf("%w: chunk_overlap (%d) must be smaller than chunk_size (%d)", domain.ErrValidation, overlap, size)
	}
	return nil
}

// Chunk splits text into overlapping word windows of `size` words with a
// stride of `size-overlap`. The final window may be shorter. Identical
// input and parameters always yield identical boundaries, which is what
// makes re-ingestion idempotent.
func Chunk(text string, size, overlap int) ([]string, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	step := size - overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for start := 0; ; start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks, nil
}
