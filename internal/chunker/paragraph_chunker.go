package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxSize = 2000
	DefaultMinSize = 100

	paragraphSep = "\n\n"
	sentenceSep  = " "
)

// ParagraphChunker splits markdown text on blank lines and packs paragraphs
// into chunks of at most maxSize characters. Oversized paragraphs are packed
// sentence by sentence instead.
type ParagraphChunker struct {
	maxSize     int
	minSize     int
	paragraphRe *regexp.Regexp
	sentenceRe  *regexp.Regexp
}

func NewParagraphChunker(maxSize, minSize int) *ParagraphChunker {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if minSize < 0 {
		minSize = DefaultMinSize
	}
	if minSize > maxSize {
		minSize = maxSize
	}
	return &ParagraphChunker{
		maxSize:     maxSize,
		minSize:     minSize,
		paragraphRe: regexp.MustCompile(`\n\s*\n`),
		sentenceRe:  regexp.MustCompile(`[.!?]\s+`),
	}
}

// Chunk returns the chunks of text in document order. Blank input yields nil.
func (c *ParagraphChunker) Chunk(text string) []string {
	var chunks []string
	buf := newBuffer(paragraphSep)

	for _, p := range c.paragraphRe.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		size := charLen(p)
		switch {
		case size > c.maxSize:
			if !buf.empty() {
				chunks = append(chunks, buf.flush())
			}
			chunks = append(chunks, c.packSentences(p)...)
		case !buf.empty() && buf.sizeWith(size) > c.maxSize:
			chunks = append(chunks, buf.flush())
			buf.add(p, size)
		default:
			buf.add(p, size)
		}
	}

	if buf.empty() {
		return chunks
	}
	tail := buf.flush()
	tailSize := charLen(tail)
	switch {
	case tailSize >= c.minSize || len(chunks) == 0:
		chunks = append(chunks, tail)
	case charLen(chunks[len(chunks)-1])+len(paragraphSep)+tailSize <= c.maxSize:
		chunks[len(chunks)-1] += paragraphSep + tail
	default:
		// merging would break the size bound
		chunks = append(chunks, tail)
	}
	return chunks
}

func (c *ParagraphChunker) packSentences(paragraph string) []string {
	var out []string
	buf := newBuffer(sentenceSep)
	for _, s := range c.sentences(paragraph) {
		size := charLen(s)
		if !buf.empty() && buf.sizeWith(size) > c.maxSize {
			out = append(out, buf.flush())
		}
		buf.add(s, size)
	}
	if !buf.empty() {
		out = append(out, buf.flush())
	}
	return out
}

// sentences cuts after each ., ! or ? that is followed by whitespace.
func (c *ParagraphChunker) sentences(paragraph string) []string {
	var out []string
	start := 0
	for _, loc := range c.sentenceRe.FindAllStringIndex(paragraph, -1) {
		out = append(out, paragraph[start:loc[0]+1])
		start = loc[1]
	}
	if start < len(paragraph) {
		out = append(out, paragraph[start:])
	}
	return out
}

type buffer struct {
	sep   string
	parts []string
	size  int
}

func newBuffer(sep string) *buffer { return &buffer{sep: sep} }

func (b *buffer) empty() bool { return len(b.parts) == 0 }

// sizeWith is the joined length after adding a part of n characters.
func (b *buffer) sizeWith(n int) int {
	if b.empty() {
		return n
	}
	return b.size + len(b.sep) + n
}

func (b *buffer) add(part string, n int) {
	b.size = b.sizeWith(n)
	b.parts = append(b.parts, part)
}

func (b *buffer) flush() string {
	s := strings.Join(b.parts, b.sep)
	b.parts = nil
	b.size = 0
	return s
}

func charLen(s string) int { return utf8.RuneCountInString(s) }
