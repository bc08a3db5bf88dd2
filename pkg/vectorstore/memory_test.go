package vectorstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(content, source string, vec ...float32) Document {
	return Document{
		Content:   content,
		Metadata:  map[string]interface{}{"source": source},
		Embedding: vec,
	}
}

func TestMemoryStoreRanksByCosine(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AddDocuments(context.Background(), []Document{
		doc("orthogonal", "a.pdf", 0, 1),
		doc("exact", "b.pdf", 2, 0),
		doc("close", "a.pdf", 1, 0.2),
		doc("opposite", "c.pdf", -1, 0),
	}))

	results, err := s.SimilaritySearch(context.Background(), []float32{1, 0}, 3, "")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "exact", results[0].Document.Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "close", results[1].Document.Content)
	assert.Equal(t, "orthogonal", results[2].Document.Content)
}

func TestMemoryStoreSourceFilter(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AddDocuments(context.Background(), []Document{
		doc("one", "a.pdf", 1, 0),
		doc("two", "b.pdf", 1, 0),
		doc("three", "a.pdf", 0, 1),
	}))

	results, err := s.SimilaritySearch(context.Background(), []float32{1, 0}, 10, "a.pdf")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "one", results[0].Document.Content)

	docs, err := s.GetContentBySource(context.Background(), "a.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "one", docs[0].Content)
	assert.Equal(t, "three", docs[1].Content)

	docs, err = s.GetContentBySource(context.Background(), "missing.pdf")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemoryStoreRejectsDimensionMismatch(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AddDocuments(context.Background(), []Document{doc("a", "x", 1, 0)}))
	err := s.AddDocuments(context.Background(), []Document{doc("b", "x", 1, 0, 0)})
	assert.Error(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreMismatchedBatchAddsNothing(t *testing.T) {
	tests := []struct {
		name    string
		seed    []Document
		batch   []Document
		wantLen int
	}{
		{
			name:    "empty store",
			batch:   []Document{doc("a", "x", 1, 0), doc("b", "x", 0, 1), doc("c", "x", 1, 0, 0)},
			wantLen: 0,
		},
		{
			name:    "seeded store",
			seed:    []Document{doc("a", "x", 1, 0)},
			batch:   []Document{doc("b", "x", 0, 1), doc("c", "x", 1)},
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore()
			require.NoError(t, s.AddDocuments(context.Background(), tt.seed))
			assert.Error(t, s.AddDocuments(context.Background(), tt.batch))
			assert.Equal(t, tt.wantLen, s.Len())
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestMemoryStoreLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors", "memory_vectors.json")

	empty, err := LoadMemoryStore(path)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	require.NoError(t, empty.AddDocuments(context.Background(), []Document{doc("hello", "notes.txt", 0.5, 0.5)}))
	require.NoError(t, empty.Save(path))

	loaded, err := LoadMemoryStore(path)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())

	docs, err := loaded.GetContentBySource(context.Background(), "notes.txt")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "hello", docs[0].Content)
	assert.Equal(t, []float32{0.5, 0.5}, docs[0].Embedding)
}

func TestLoadMemoryStoreLangChainLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory_vectors.json")
	raw := `[{"content":"Photosynthesis converts light","embedding":[0.1,0.9],"metadata":{"source":"bio.pdf","loc":{"pageNumber":3}}}]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	s, err := LoadMemoryStore(path)
	require.NoError(t, err)

	results, err := s.SimilaritySearch(context.Background(), []float32{0.1, 0.9}, 4, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Photosynthesis converts light", results[0].Document.Content)
	assert.Equal(t, "bio.pdf", sourceOf(results[0].Document))
}

func TestLoadMemoryStoreMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory_vectors.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"}`), 0o644))

	_, err := LoadMemoryStore(path)
	assert.Error(t, err)
}
