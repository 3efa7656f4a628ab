package chunker

import (
	"strings"
	"testing"

	"github.com/liliang-cn/wikirag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "w"
	}
	return strings.Join(parts, " ")
}

func TestChunkCountLaw(t *testing.T) {
	cases := []struct {
		name    string
		words   int
		size    int
		overlap int
		want    int
	}{
		{"empty", 0, 100, 20, 0},
		{"single short", 5, 100, 20, 1},
		{"exact fit", 100, 100, 20, 1},
		{"two windows", 101, 100, 20, 2},
		{"ten words", 10, 4, 2, 4},
		{"no overlap", 10, 5, 0, 2},
		{"big page", 1000, 400, 40, 3}, // ceil(960/360)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks, err := Chunk(words(tc.words), tc.size, tc.overlap)
			require.NoError(t, err)
			assert.Len(t, chunks, tc.want)
		})
	}
}

func TestChunkOverlapContent(t *testing.T) {
	text := "a b c d e f g h i j"
	chunks, err := Chunk(text, 4, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, "a b c d", chunks[0])
	assert.Equal(t, "c d e f", chunks[1])
	assert.Equal(t, "e f g h", chunks[2])
	assert.Equal(t, "g h i j", chunks[3])
}

func TestChunkDeterministic(t *testing.T) {
	text := words(537)
	first, err := Chunk(text, 100, 20)
	require.NoError(t, err)
	second, err := Chunk(text, 100, 20)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChunkCollapsesWhitespace(t *testing.T) {
	chunks, err := Chunk("  one\n\ntwo\tthree  ", 10, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "one two three", chunks[0])
}

func TestChunkInvalidParams(t *testing.T) {
	for _, tc := range []struct{ size, overlap int }{
		{0, 0},
		{-1, 0},
		{10, -1},
		{10, 10},
		{10, 15},
	} {
		_, err := Chunk("some text", tc.size, tc.overlap)
		assert.ErrorIs(t, err, domain.ErrValidation, "size=%d overlap=%d", tc.size, tc.overlap)
	}
}
