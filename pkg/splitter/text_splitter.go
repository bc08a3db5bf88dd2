package splitter

import (
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// TextSplitter chunks loaded documents before they are embedded.
type TextSplitter struct {
	splitter textsplitter.TextSplitter
}

func NewRecursiveCharacterTextSplitter(chunkSize, chunkOverlap int) *TextSplitter {
	ts := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)

	return &TextSplitter{splitter: ts}
}

func (ts *TextSplitter) SplitText(text string) ([]string, error) {
	return ts.splitter.SplitText(text)
}

// SplitDocuments splits every document and copies its metadata onto each chunk.
func (ts *TextSplitter) SplitDocuments(docs []schema.Document) ([]schema.Document, error) {
	return textsplitter.SplitDocuments(ts.splitter, docs)
}
