package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/wikirag/internal/vectorstore"
)

func point(pageID int64, idx int, vec []float32) vectorstore.Point {
	return vectorstore.Point{
		PageID:     pageID,
		ChunkIndex: idx,
		Vector:     vec,
		Payload: vectorstore.Payload{
			Source:     "wikipedia",
			Title:      "Page",
			PageID:     pageID,
			ChunkIndex: idx,
			Content:    "chunk text",
		},
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Init(context.Background(), 3))
	return s
}

func TestUpsertOverwritesSameKey(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	pts := []vectorstore.Point{point(1, 0, []float32{1, 0, 0}), point(1, 1, []float32{0, 1, 0})}
	require.NoError(t, s.Upsert(ctx, pts))
	require.NoError(t, s.Upsert(ctx, pts))

	assert.Equal(t, 2, s.Count())
}

func TestSearchThresholdAndSelfMatch(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Upsert(ctx, []vectorstore.Point{
		point(1, 0, []float32{1, 0, 0}),
		point(1, 1, []float32{0, 1, 0}),
		point(2, 0, []float32{0.7, 0.7, 0}),
	}))

	results, err := s.Search(ctx, []float32{1, 0, 0}, 10, 0.5)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.5)
	}
	// exact self-match ranks first with the maximum score
	assert.Equal(t, int64(1), results[0].Payload.PageID)
	assert.Equal(t, 0, results[0].Payload.ChunkIndex)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestSearchTieBreakDeterministic(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// identical vectors: ties must resolve by chunk_index then page_id
	require.NoError(t, s.Upsert(ctx, []vectorstore.Point{
		point(9, 1, []float32{1, 0, 0}),
		point(3, 0, []float32{1, 0, 0}),
		point(7, 0, []float32{1, 0, 0}),
	}))

	results, err := s.Search(ctx, []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, int64(3), results[0].Payload.PageID)
	assert.Equal(t, int64(7), results[1].Payload.PageID)
	assert.Equal(t, int64(9), results[2].Payload.PageID)
}

func TestSearchTopKLimit(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for i := 0; i < 8; i++ {
		require.NoError(t, s.Upsert(ctx, []vectorstore.Point{point(1, i, []float32{1, 0, 0})}))
	}

	results, err := s.Search(ctx, []float32{1, 0, 0}, 3, 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestDeletePageCascades(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Upsert(ctx, []vectorstore.Point{
		point(1, 0, []float32{1, 0, 0}),
		point(1, 1, []float32{0, 1, 0}),
		point(2, 0, []float32{0, 0, 1}),
	}))

	require.NoError(t, s.DeletePage(ctx, 1))

	count, err := s.CountPage(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	results, err := s.Search(ctx, []float32{1, 0, 0}, 10, -1)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, int64(1), r.Payload.PageID)
	}

	refs, err := s.ListPages(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, int64(2), refs[0].PageID)

	// deleting again is a no-op
	require.NoError(t, s.DeletePage(ctx, 1))
}

func TestListPagesAggregates(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	pts := []vectorstore.Point{
		point(1, 0, []float32{1, 0, 0}),
		point(1, 1, []float32{0, 1, 0}),
		point(2, 0, []float32{0, 0, 1}),
	}
	pts[0].Payload.Title = "Zebra"
	pts[1].Payload.Title = "Zebra"
	pts[2].Payload.Title = "aardvark"
	require.NoError(t, s.Upsert(ctx, pts))

	refs, err := s.ListPages(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	// sorted case-insensitively by title
	assert.Equal(t, "aardvark", refs[0].Title)
	assert.Equal(t, 1, refs[0].ChunkCount)
	assert.Equal(t, "Zebra", refs[1].Title)
	assert.Equal(t, 2, refs[1].ChunkCount)
}

func TestPointIDStable(t *testing.T) {
	assert.Equal(t, vectorstore.PointID(42, 3), vectorstore.PointID(42, 3))
	assert.NotEqual(t, vectorstore.PointID(42, 3), vectorstore.PointID(42, 4))
	assert.NotEqual(t, vectorstore.PointID(42, 3), vectorstore.PointID(43, 3))
}
