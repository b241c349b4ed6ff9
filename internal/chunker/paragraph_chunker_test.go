package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentence(n int) string {
	// n characters ending in a period
	return strings.Repeat("a", n-1) + "."
}

func paragraph(sentences, sentenceLen int) string {
	parts := make([]string, sentences)
	for i := range parts {
		parts[i] = sentence(sentenceLen)
	}
	return strings.Join(parts, " ")
}

func nonSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestNewParagraphChunker_Defaults(t *testing.T) {
	c := NewParagraphChunker(0, -1)
	assert.Equal(t, DefaultMaxSize, c.maxSize)
	assert.Equal(t, DefaultMinSize, c.minSize)

	c = NewParagraphChunker(50, 80)
	assert.Equal(t, 50, c.minSize)
}

func TestChunk_BlankInput(t *testing.T) {
	c := NewParagraphChunker(100, 10)
	assert.Empty(t, c.Chunk(""))
	assert.Empty(t, c.Chunk("  \n\n \t\n"))
}

func TestChunk_ShortDocumentStillProducesOneChunk(t *testing.T) {
	c := NewParagraphChunker(2000, 100)
	chunks := c.Chunk("# Title\n\ntiny")
	require.Len(t, chunks, 1)
	assert.Equal(t, "# Title\n\ntiny", chunks[0])
}

func TestChunk_PacksParagraphsUpToMax(t *testing.T) {
	c := NewParagraphChunker(25, 0)
	text := "aaaaaaaaaa\n\nbbbbbbbbbb\n\ncccccccccc"
	chunks := c.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaaaaaaaa\n\nbbbbbbbbbb", chunks[0])
	assert.Equal(t, "cccccccccc", chunks[1])
}

func TestChunk_BlankLinesWithWhitespaceSplitParagraphs(t *testing.T) {
	c := NewParagraphChunker(12, 0)
	chunks := c.Chunk("first line\n   \t\nsecond one")
	assert.Equal(t, []string{"first line", "second one"}, chunks)
}

func TestChunk_SmallTailMergesIntoPreviousChunk(t *testing.T) {
	c := NewParagraphChunker(40, 10)
	// the oversized paragraph splits into two sentence chunks, leaving room for the tail
	text := sentence(30) + " " + sentence(20) + "\n\nzz"
	chunks := c.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, sentence(30), chunks[0])
	assert.Equal(t, sentence(20)+"\n\nzz", chunks[1])
}

func TestChunk_SmallTailStaysSeparateWhenMergeWouldOverflow(t *testing.T) {
	c := NewParagraphChunker(32, 10)
	text := strings.Repeat("x", 30) + "\n\nzz"
	chunks := c.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "zz", chunks[1])
}

func TestChunk_OversizedParagraphSplitsAtSentences(t *testing.T) {
	c := NewParagraphChunker(2000, 100)
	p1 := strings.Repeat("p", 1200)
	p2 := paragraph(22, 100) // 22*100 + 21 spaces
	require.Greater(t, utf8.RuneCountInString(p2), 2000)

	chunks := c.Chunk(p1 + "\n\n" + p2)
	require.GreaterOrEqual(t, len(chunks), 3)
	assert.Equal(t, p1, chunks[0])
	for _, ch := range chunks[1:] {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch), 2000)
		assert.True(t, strings.HasSuffix(ch, "."), "sentence groups end at a sentence boundary")
	}
}

func TestChunk_SingleOversizedSentenceIsEmittedWhole(t *testing.T) {
	c := NewParagraphChunker(50, 0)
	long := strings.Repeat("w", 120)
	chunks := c.Chunk("intro paragraph\n\n" + long)
	require.Len(t, chunks, 2)
	assert.Equal(t, "intro paragraph", chunks[0])
	assert.Equal(t, long, chunks[1])
}

func TestChunk_BoundsAndCompleteness(t *testing.T) {
	cases := []struct {
		name string
		text string
		max  int
	}{
		{"mixed paragraphs", "one two three.\n\n" + paragraph(8, 30) + "\n\nshort\n\n" + paragraph(3, 15), 100},
		{"many small", strings.Repeat("line of text here\n\n", 40), 120},
		{"accented", strings.Repeat("Él añadió información útil. ", 30), 90},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewParagraphChunker(tc.max, 10)
			chunks := c.Chunk(tc.text)
			require.NotEmpty(t, chunks)
			for _, ch := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(ch), tc.max)
			}
			assert.Equal(t, nonSpace(tc.text), nonSpace(strings.Join(chunks, "")))
		})
	}
}

func TestSentences(t *testing.T) {
	c := NewParagraphChunker(10, 0)
	got := c.sentences("Hi there. How are you?  Fine!\nBye v1.2 ok")
	assert.Equal(t, []string{"Hi there.", "How are you?", "Fine!", "Bye v1.2 ok"}, got)
}
