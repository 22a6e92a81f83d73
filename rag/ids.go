package rag

import (
	"fmt"

	"github.com/google/uuid"
)

// NewDocumentID returns a random identifier for documents that arrive without one.
func NewDocumentID() string {
	return uuid.NewString()
}

// ChunkID derives the identifier of chunk i of a parent document.
func ChunkID(parentID string, i int) string {
	if parentID == "" {
		parentID = NewDocumentID()
	}
	return fmt.Sprintf("%s_chunk_%d", parentID, i)
}

// EnsureIDs assigns a fresh ID to every document that lacks one.
func EnsureIDs(docs []Document) {
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = NewDocumentID()
		}
	}
}
