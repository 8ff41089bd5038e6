package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/core/services"
)

type staticCorpus struct {
	docs []struct {
		path, title, content string
	}
}

func (c *staticCorpus) add(path, title, content string) {
	c.docs = append(c.docs, struct{ path, title, content string }{path, title, content})
}

func (c *staticCorpus) Walk(ctx context.Context, fn func(path, title string, content []byte) error) error {
	for _, d := range c.docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(d.path, d.title, []byte(d.content)); err != nil {
			return err
		}
	}
	return nil
}

func testCorpus() *staticCorpus {
	c := &staticCorpus{}
	c.add("/Sunset", "Sunset", "A sunset is the disappearance of the sun below the horizon. Scattering makes the sky turn orange and red.")
	c.add("/Sunset_Boulevard", "Sunset Boulevard", "Sunset Boulevard is a famous street in Los Angeles.")
	c.add("/Sunrise", "Sunrise", "A sunrise is the appearance of the sun above the horizon in the morning.")
	c.add("/Ocean", "Ocean", "An ocean is a large body of salt water. Sunlight scatters at the surface.")
	return c
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()

	idx, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	builder := NewBuilder(idx, testCorpus(), services.NewSectionChunker(160, 20))
	n, err := builder.Build(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	return idx
}

func TestQueryBeforeBuildIsUnavailable(t *testing.T) {
	idx, err := Open(t.TempDir())
	require.NoError(t, err)
	defer idx.Close()

	_, err = idx.Query(context.Background(), []string{"sunset"}, 10)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)

	_, err = idx.Suggest(context.Background(), "sun", 10)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)

	_, err = idx.Search(context.Background(), "sunset", 10)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestQueryMatchesAnyToken(t *testing.T) {
	idx := newTestIndex(t)

	records, err := idx.Query(context.Background(), []string{"sunset", "sunrise"}, 10)
	require.NoError(t, err)

	paths := make([]string, len(records))
	for i, rec := range records {
		paths[i] = rec.Path
	}
	assert.Contains(t, paths, "/Sunset")
	assert.Contains(t, paths, "/Sunset_Boulevard")
	assert.Contains(t, paths, "/Sunrise")
	assert.NotContains(t, paths, "/Ocean")
}

func TestQueryTieBreaksOnShorterTitle(t *testing.T) {
	idx := newTestIndex(t)

	// Both titles contain "sunset" exactly once; the shorter title
	// must rank first.
	records, err := idx.Query(context.Background(), []string{"sunset"}, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "/Sunset", records[0].Path)
	assert.Equal(t, "/Sunset_Boulevard", records[1].Path)
}

func TestQueryRespectsLimit(t *testing.T) {
	idx := newTestIndex(t)

	records, err := idx.Query(context.Background(), []string{"sunset", "sunrise"}, 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestQueryEmptyTokens(t *testing.T) {
	idx := newTestIndex(t)

	records, err := idx.Query(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSuggestPrefix(t *testing.T) {
	idx := newTestIndex(t)

	refs, err := idx.Suggest(context.Background(), "sun", 10)
	require.NoError(t, err)

	paths := make([]string, len(refs))
	for i, ref := range refs {
		paths[i] = ref.Path
	}
	assert.Contains(t, paths, "/Sunset")
	assert.Contains(t, paths, "/Sunrise")
	assert.NotContains(t, paths, "/Ocean")
}

func TestSuggestQuotesPunctuation(t *testing.T) {
	idx := newTestIndex(t)

	// FTS5 operator characters in the prefix must not be interpreted.
	refs, err := idx.Suggest(context.Background(), `sun"set`, 10)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestSearchMatchesBody(t *testing.T) {
	idx := newTestIndex(t)

	// "horizon" never appears in a title, only in page text.
	refs, err := idx.Search(context.Background(), "below the horizon", 10)
	require.NoError(t, err)

	paths := make([]string, len(refs))
	for i, ref := range refs {
		paths[i] = ref.Path
	}
	assert.Contains(t, paths, "/Sunset")
	assert.Contains(t, paths, "/Sunrise")
}

func TestSearchStopwordOnlyQuery(t *testing.T) {
	idx := newTestIndex(t)

	refs, err := idx.Search(context.Background(), "the of an", 10)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestStatCountsDocuments(t *testing.T) {
	idx := newTestIndex(t)

	n, err := idx.Stat(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestRebuildReplacesIndex(t *testing.T) {
	idx, err := Open(t.TempDir())
	require.NoError(t, err)
	defer idx.Close()

	chunker := services.NewSectionChunker(160, 20)

	first := &staticCorpus{}
	first.add("/A", "Alpha", "alpha body text")
	_, err = NewBuilder(idx, first, chunker).Build(context.Background(), nil)
	require.NoError(t, err)

	second := &staticCorpus{}
	second.add("/B", "Beta", "beta body text")
	second.add("/C", "Gamma", "gamma body text")
	n, err := NewBuilder(idx, second, chunker).Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := idx.Query(context.Background(), []string{"alpha"}, 10)
	require.NoError(t, err)
	assert.Empty(t, records, "old build must be fully replaced")

	records, err = idx.Query(context.Background(), []string{"beta"}, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "/B", records[0].Path)
}

func TestBuildReportsProgress(t *testing.T) {
	idx, err := Open(t.TempDir())
	require.NoError(t, err)
	defer idx.Close()

	var fracs []float64
	_, err = NewBuilder(idx, testCorpus(), services.NewSectionChunker(160, 20)).
		Build(context.Background(), func(frac float64, msg string) {
			fracs = append(fracs, frac)
		})
	require.NoError(t, err)
	require.NotEmpty(t, fracs)
	assert.Equal(t, 1.0, fracs[len(fracs)-1])
}
