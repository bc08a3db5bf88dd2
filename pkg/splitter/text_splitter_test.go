package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

func TestSplitTextRespectsChunkSize(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(50, 10)
	text := strings.Repeat("plants convert light into chemical energy. ", 10)

	chunks, err := ts.SplitText(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
	}
}

func TestSplitDocumentsKeepsMetadata(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(40, 0)
	docs := []schema.Document{{
		PageContent: strings.Repeat("word ", 30),
		Metadata:    map[string]any{"source": "notes.txt"},
	}}

	out, err := ts.SplitDocuments(docs)
	require.NoError(t, err)
	require.Greater(t, len(out), 1)
	for _, d := range out {
		assert.Equal(t, "notes.txt", d.Metadata["source"])
	}
}
