package retrieval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKnowledgeBaseSeed(t *testing.T) {
	kb, err := LoadKnowledgeBase("")
	require.NoError(t, err)
	assert.Greater(t, kb.Len(), 0)
}

func TestLoadKnowledgeBaseFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	content := `documents:
  - id: ref-1
    summary: test
    text: minimum turnover of £50 million
    barrier_score: 12
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	kb, err := LoadKnowledgeBase(path)
	require.NoError(t, err)
	assert.Equal(t, 1, kb.Len())
}

func TestLoadKnowledgeBaseEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("documents: []\n"), 0o644))

	_, err := LoadKnowledgeBase(path)
	require.Error(t, err)
}

func TestTopKRanksByOverlap(t *testing.T) {
	kb := &KnowledgeBase{docs: []Document{
		{ID: "a", Text: "apples and oranges"},
		{ID: "b", Text: "tender with minimum turnover and insurance requirements"},
		{ID: "c", Text: "minimum turnover of fifty million with insurance"},
	}}

	top := kb.TopK("minimum turnover insurance", 2)
	require.Len(t, top, 2)
	assert.NotEqual(t, "a", top[0].ID)
	assert.NotEqual(t, "a", top[1].ID)
	assert.GreaterOrEqual(t, top[0].Overlap, top[1].Overlap)
}

func TestTopKBounds(t *testing.T) {
	kb := &KnowledgeBase{docs: []Document{{ID: "a", Text: "x"}}}

	assert.Nil(t, kb.TopK("x", 0))
	assert.Len(t, kb.TopK("x", 5), 1)
}

func TestOverlapRatio(t *testing.T) {
	a := wordSet("one two three")
	b := wordSet("two three four")

	// |∩| = 2, |∪| = 4.
	assert.InDelta(t, 0.5, overlapRatio(a, b), 1e-9)
	assert.InDelta(t, 0, overlapRatio(wordSet(""), wordSet("")), 1e-9)
}
