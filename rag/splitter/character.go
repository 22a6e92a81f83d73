package splitter

import (
	"errors"
	"fmt"
	"maps"

	"github.com/smallnest/raglab/rag"
)

// ErrInvalidOverlap is returned when the overlap is negative or not smaller
// than the chunk size.
var ErrInvalidOverlap = errors.New("chunk overlap must be in [0, chunk size)")

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// CharacterTextSplitter cuts text into fixed windows of chunkSize runes.
// Consecutive windows share chunkOverlap runes.
type CharacterTextSplitter struct {
	chunkSize    int
	chunkOverlap int
}

// CharacterTextSplitterOption configures the CharacterTextSplitter
type CharacterTextSplitterOption func(*CharacterTextSplitter)

// WithCharacterChunkSize sets the chunk size for character splitter
func WithCharacterChunkSize(size int) CharacterTextSplitterOption {
	return func(s *CharacterTextSplitter) {
		s.chunkSize = size
	}
}

// WithCharacterChunkOverlap sets the chunk overlap for character splitter
func WithCharacterChunkOverlap(overlap int) CharacterTextSplitterOption {
	return func(s *CharacterTextSplitter) {
		s.chunkOverlap = overlap
	}
}

// NewCharacterTextSplitter creates a CharacterTextSplitter, 1000/200 by default.
func NewCharacterTextSplitter(opts ...CharacterTextSplitterOption) (*CharacterTextSplitter, error) {
	s := &CharacterTextSplitter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", s.chunkSize)
	}
	if s.chunkOverlap < 0 || s.chunkOverlap >= s.chunkSize {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidOverlap, s.chunkSize, s.chunkOverlap)
	}
	return s, nil
}

// ChunkSize returns the window length in runes.
func (s *CharacterTextSplitter) ChunkSize() int { return s.chunkSize }

// ChunkOverlap returns the number of runes shared by consecutive chunks.
func (s *CharacterTextSplitter) ChunkOverlap() int { return s.chunkOverlap }

// SplitText splits text into chunks
func (s *CharacterTextSplitter) SplitText(text string) []string {
	spans := s.spans([]rune(text))
	chunks := make([]string, len(spans))
	for i, sp := range spans {
		chunks[i] = sp.text
	}
	return chunks
}

// SplitDocuments splits documents into chunks. Each chunk records the rune
// offset it starts at.
func (s *CharacterTextSplitter) SplitDocuments(docs []rag.Document) []rag.Document {
	chunks := make([]rag.Document, 0)

	for _, doc := range docs {
		spans := s.spans([]rune(doc.Content))

		for i, sp := range spans {
			metadata := make(map[string]any, len(doc.Metadata)+4)
			maps.Copy(metadata, doc.Metadata)
			metadata["chunk_index"] = i
			metadata["chunk_total"] = len(spans)
			metadata["parent_id"] = doc.ID
			metadata["offset"] = sp.offset

			chunks = append(chunks, rag.Document{
				ID:        rag.ChunkID(doc.ID, i),
				Content:   sp.text,
				Metadata:  metadata,
				CreatedAt: doc.CreatedAt,
				UpdatedAt: doc.UpdatedAt,
			})
		}
	}

	return chunks
}

// JoinText rebuilds the original text by dropping the overlapping prefix of
// every chunk after the first.
func (s *CharacterTextSplitter) JoinText(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}

	out := []rune(chunks[0])
	for _, chunk := range chunks[1:] {
		r := []rune(chunk)
		if len(r) <= s.chunkOverlap {
			continue
		}
		out = append(out, r[s.chunkOverlap:]...)
	}
	return string(out)
}

type span struct {
	text   string
	offset int
}

func (s *CharacterTextSplitter) spans(runes []rune) []span {
	var out []span
	step := s.chunkSize - s.chunkOverlap

	for start := 0; start < len(runes); start += step {
		end := min(start+s.chunkSize, len(runes))
		out = append(out, span{text: string(runes[start:end]), offset: start})
		if end == len(runes) {
			break
		}
	}
	return out
}
