package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkSnippet(t *testing.T) {
	c := Chunk{Text: "  the quick   brown fox jumps over the lazy dog  "}

	assert.Equal(t, "the quick brown", c.Snippet(3))
	assert.Equal(t, "the quick brown fox jumps over the lazy dog", c.Snippet(100))
	assert.Equal(t, "", c.Snippet(0))
	assert.Equal(t, "", Chunk{}.Snippet(5))
}
