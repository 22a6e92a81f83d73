package splitter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/smallnest/raglab/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterTextSplitter(t *testing.T) {
	t.Run("Invalid overlap", func(t *testing.T) {
		_, err := NewCharacterTextSplitter(WithCharacterChunkSize(10), WithCharacterChunkOverlap(10))
		assert.ErrorIs(t, err, ErrInvalidOverlap)

		_, err = NewCharacterTextSplitter(WithCharacterChunkSize(10), WithCharacterChunkOverlap(-1))
		assert.ErrorIs(t, err, ErrInvalidOverlap)

		_, err = NewCharacterTextSplitter(WithCharacterChunkSize(0))
		assert.Error(t, err)
	})

	t.Run("Defaults", func(t *testing.T) {
		s, err := NewCharacterTextSplitter()
		require.NoError(t, err)
		assert.Equal(t, 1000, s.ChunkSize())
		assert.Equal(t, 200, s.ChunkOverlap())
	})

	t.Run("Short and empty text", func(t *testing.T) {
		s, err := NewCharacterTextSplitter(WithCharacterChunkSize(10), WithCharacterChunkOverlap(2))
		require.NoError(t, err)
		assert.Empty(t, s.SplitText(""))
		assert.Equal(t, []string{"short"}, s.SplitText("short"))
		assert.Equal(t, []string{"0123456789"}, s.SplitText("0123456789"))
	})

	t.Run("Overlapping windows", func(t *testing.T) {
		s, err := NewCharacterTextSplitter(WithCharacterChunkSize(10), WithCharacterChunkOverlap(3))
		require.NoError(t, err)

		chunks := s.SplitText("abcdefghijklmnopqrstuvwxyz")
		assert.Equal(t, []string{"abcdefghij", "hijklmnopq", "opqrstuvwx", "vwxyz"}, chunks)
	})

	t.Run("Chunk count and overlap properties", func(t *testing.T) {
		cases := []struct{ size, overlap, length int }{
			{1000, 200, 5000},
			{1000, 200, 1000},
			{1000, 200, 1001},
			{100, 0, 950},
			{7, 6, 40},
			{50, 10, 49},
		}
		for _, c := range cases {
			s, err := NewCharacterTextSplitter(WithCharacterChunkSize(c.size), WithCharacterChunkOverlap(c.overlap))
			require.NoError(t, err)

			text := strings.Repeat("é", c.length)
			chunks := s.SplitText(text)

			want := 1
			if c.length > c.size {
				step := c.size - c.overlap
				want = (c.length - c.overlap + step - 1) / step
			}
			assert.Len(t, chunks, want, "size=%d overlap=%d length=%d", c.size, c.overlap, c.length)

			for i, chunk := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(chunk), c.size)
				if i > 0 {
					prev := []rune(chunks[i-1])
					cur := []rune(chunk)
					assert.Equal(t, string(prev[len(prev)-c.overlap:]), string(cur[:c.overlap]))
				}
			}
			assert.Equal(t, text, s.JoinText(chunks))
		}
	})

	t.Run("JoinText reverses multibyte text", func(t *testing.T) {
		s, err := NewCharacterTextSplitter(WithCharacterChunkSize(4), WithCharacterChunkOverlap(1))
		require.NoError(t, err)
		text := "日本語のテキストを分割する"
		assert.Equal(t, text, s.JoinText(s.SplitText(text)))
		assert.Empty(t, s.JoinText(nil))
	})

	t.Run("Split documents", func(t *testing.T) {
		s, err := NewCharacterTextSplitter(WithCharacterChunkSize(10), WithCharacterChunkOverlap(2))
		require.NoError(t, err)

		docs := []rag.Document{{
			ID:       "doc1",
			Content:  "0123456789abcdefgh",
			Metadata: map[string]any{"source": "test"},
		}}
		chunks := s.SplitDocuments(docs)
		require.Len(t, chunks, 2)
		assert.Equal(t, "doc1_chunk_1", chunks[1].ID)
		assert.Equal(t, "89abcdefgh", chunks[1].Content)
		assert.Equal(t, 8, chunks[1].Metadata["offset"])
		assert.Equal(t, "doc1", chunks[1].Metadata["parent_id"])
		assert.Equal(t, 2, chunks[1].Metadata["chunk_total"])
		assert.Equal(t, "test", chunks[1].Metadata["source"])

		assert.Empty(t, s.SplitDocuments([]rag.Document{{ID: "empty"}}))
	})
}

func TestRecursiveCharacterTextSplitter(t *testing.T) {
	t.Run("Basic splitting", func(t *testing.T) {
		s, err := NewRecursiveCharacterTextSplitter(
			WithChunkSize(10),
			WithChunkOverlap(0),
		)
		require.NoError(t, err)
		chunks := s.SplitText("1234567890abcdefghij")
		assert.Equal(t, []string{"1234567890", "abcdefghij"}, chunks)
	})

	t.Run("Split with separators", func(t *testing.T) {
		s, err := NewRecursiveCharacterTextSplitter(
			WithChunkSize(10),
			WithChunkOverlap(0),
			WithSeparators([]string{"\n"}),
		)
		require.NoError(t, err)
		chunks := s.SplitText("part1\npart2\npart3")
		assert.Equal(t, []string{"part1", "part2", "part3"}, chunks)
	})

	t.Run("Merges small pieces with overlap", func(t *testing.T) {
		s, err := NewRecursiveCharacterTextSplitter(
			WithChunkSize(11),
			WithChunkOverlap(5),
		)
		require.NoError(t, err)
		chunks := s.SplitText("aa bb cc dd ee ff")
		assert.Equal(t, []string{"aa bb cc dd", "cc dd ee ff"}, chunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), 11)
		}
	})

	t.Run("Blank text", func(t *testing.T) {
		s, err := NewRecursiveCharacterTextSplitter()
		require.NoError(t, err)
		assert.Empty(t, s.SplitText(" \n "))
	})

	t.Run("Invalid overlap", func(t *testing.T) {
		_, err := NewRecursiveCharacterTextSplitter(WithChunkSize(5), WithChunkOverlap(5))
		assert.ErrorIs(t, err, ErrInvalidOverlap)
	})

	t.Run("Split documents", func(t *testing.T) {
		s, err := NewRecursiveCharacterTextSplitter(
			WithChunkSize(10),
			WithChunkOverlap(2),
		)
		require.NoError(t, err)
		doc := rag.Document{
			ID:       "doc1",
			Content:  "para one\n\npara two",
			Metadata: map[string]any{"source": "test"},
		}
		chunks := s.SplitDocuments([]rag.Document{doc})
		require.Len(t, chunks, 2)
		assert.Equal(t, "doc1_chunk_0", chunks[0].ID)
		assert.Equal(t, "para one", chunks[0].Content)
		assert.Equal(t, "doc1", chunks[0].Metadata["parent_id"])
		assert.Equal(t, "para one\n\npara two", s.JoinText([]string{chunks[0].Content, chunks[1].Content}))
	})
}
