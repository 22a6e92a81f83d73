package splitter

import (
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/smallnest/raglab/rag"
)

// RecursiveCharacterTextSplitter splits on the coarsest separator that yields
// pieces no longer than chunkSize runes, then merges neighbouring pieces back
// up to chunkSize.
type RecursiveCharacterTextSplitter struct {
	separators   []string
	chunkSize    int
	chunkOverlap int
	lengthFunc   func(string) int
}

// RecursiveCharacterTextSplitterOption configures the RecursiveCharacterTextSplitter
type RecursiveCharacterTextSplitterOption func(*RecursiveCharacterTextSplitter)

// WithChunkSize sets the chunk size for the splitter
func WithChunkSize(size int) RecursiveCharacterTextSplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets the chunk overlap for the splitter
func WithChunkOverlap(overlap int) RecursiveCharacterTextSplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkOverlap = overlap
	}
}

// WithSeparators sets the custom separators for the splitter
func WithSeparators(separators []string) RecursiveCharacterTextSplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.separators = separators
	}
}

// WithLengthFunction sets a custom length function
func WithLengthFunction(fn func(string) int) RecursiveCharacterTextSplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.lengthFunc = fn
	}
}

// NewRecursiveCharacterTextSplitter creates a new RecursiveCharacterTextSplitter
func NewRecursiveCharacterTextSplitter(opts ...RecursiveCharacterTextSplitterOption) (*RecursiveCharacterTextSplitter, error) {
	s := &RecursiveCharacterTextSplitter{
		separators:   []string{"\n\n", "\n", " ", ""},
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		lengthFunc:   utf8.RuneCountInString,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.chunkOverlap < 0 || s.chunkOverlap >= s.chunkSize {
		return nil, ErrInvalidOverlap
	}
	return s, nil
}

// SplitText splits text into chunks
func (s *RecursiveCharacterTextSplitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.splitRecursive(text, s.separators)
}

// SplitDocuments splits documents into chunks
func (s *RecursiveCharacterTextSplitter) SplitDocuments(docs []rag.Document) []rag.Document {
	chunks := make([]rag.Document, 0)

	for _, doc := range docs {
		pieces := s.SplitText(doc.Content)

		for i, piece := range pieces {
			metadata := make(map[string]any, len(doc.Metadata)+3)
			maps.Copy(metadata, doc.Metadata)
			metadata["chunk_index"] = i
			metadata["chunk_total"] = len(pieces)
			metadata["parent_id"] = doc.ID

			chunks = append(chunks, rag.Document{
				ID:        rag.ChunkID(doc.ID, i),
				Content:   piece,
				Metadata:  metadata,
				CreatedAt: doc.CreatedAt,
				UpdatedAt: doc.UpdatedAt,
			})
		}
	}

	return chunks
}

// JoinText joins chunks with blank lines. The result is not guaranteed to
// match the input byte for byte.
func (s *RecursiveCharacterTextSplitter) JoinText(chunks []string) string {
	return strings.Join(chunks, "\n\n")
}

func (s *RecursiveCharacterTextSplitter) splitRecursive(text string, separators []string) []string {
	if s.lengthFunc(text) <= s.chunkSize {
		return []string{text}
	}

	if len(separators) == 0 || separators[0] == "" {
		return s.window(text)
	}

	separator := separators[0]
	var pieces []string
	for _, part := range strings.Split(text, separator) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if s.lengthFunc(part) <= s.chunkSize {
			pieces = append(pieces, part)
			continue
		}
		pieces = append(pieces, s.splitRecursive(part, separators[1:])...)
	}

	return s.merge(pieces, separator)
}

// window cuts text into overlapping rune windows when no separator helps.
func (s *RecursiveCharacterTextSplitter) window(text string) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += s.chunkSize - s.chunkOverlap {
		end := min(start+s.chunkSize, len(runes))
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// merge packs pieces into chunks of at most chunkSize, seeding each new chunk
// with trailing pieces of the previous one that fit within chunkOverlap.
func (s *RecursiveCharacterTextSplitter) merge(pieces []string, separator string) []string {
	var merged []string
	var current []string
	length := 0
	sepLen := s.lengthFunc(separator)

	for _, piece := range pieces {
		pieceLen := s.lengthFunc(piece)
		extra := pieceLen
		if len(current) > 0 {
			extra += sepLen
		}

		if len(current) > 0 && length+extra > s.chunkSize {
			merged = append(merged, strings.Join(current, separator))

			for len(current) > 0 && (length > s.chunkOverlap || length+sepLen+pieceLen > s.chunkSize) {
				length -= s.lengthFunc(current[0])
				if len(current) > 1 {
					length -= sepLen
				}
				current = current[1:]
			}
			extra = pieceLen
			if len(current) > 0 {
				extra += sepLen
			}
		}

		current = append(current, piece)
		length += extra
	}

	if len(current) > 0 {
		merged = append(merged, strings.Join(current, separator))
	}
	return merged
}
