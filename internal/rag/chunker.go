package rag

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	paragraphSep = "\n\n"
)

// Chunker splits document text into overlapping passages. It prefers
// paragraph boundaries and falls back to sentence boundaries for paragraphs
// larger than ChunkSize. Chunking is a pure function of the input and the
// config: the same text always yields the same passages.
type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
}

func NewChunker(chunkSize, chunkOverlap int) Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return Chunker{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// Chunk returns the ordered passages for text. Empty or whitespace-only
// input yields no passages. A single sentence longer than ChunkSize is kept
// intact as its own passage; sentences are never split.
func (c Chunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	size := c.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks []string
	current := ""
	for _, paragraph := range strings.Split(text, paragraphSep) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if len(current)+len(paragraph)+len(paragraphSep) <= size {
			if current != "" {
				current += paragraphSep + paragraph
			} else {
				current = paragraph
			}
			continue
		}
		if current != "" {
			chunks = append(chunks, current)
		}
		if len(paragraph) > size {
			current = ""
			for _, sentence := range SplitSentences(paragraph) {
				if len(current)+len(sentence)+1 <= size {
					if current != "" {
						current += " " + sentence
					} else {
						current = sentence
					}
					continue
				}
				if current != "" {
					chunks = append(chunks, current)
				}
				current = sentence
			}
		} else {
			current = paragraph
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}

	if c.ChunkOverlap > 0 && len(chunks) > 1 {
		chunks = addOverlap(chunks, c.ChunkOverlap)
	}
	return chunks
}

// EstimateChunkCount is a cheap upper-bound estimate for progress reporting.
// It is not required to match the actual chunk count.
func (c Chunker) EstimateChunkCount(text string) int {
	if text == "" {
		return 0
	}
	size := c.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	n := len(text) / size
	if n < 1 {
		n = 1
	}
	return n
}

// addOverlap prepends the trailing min(overlap, len(prev)) bytes of the
// previous chunk to each chunk after the first, separated by a single space.
// The tail is taken verbatim, so it may start mid-word; the slice start is
// advanced to a rune boundary so multi-byte text never splits mid-rune.
func addOverlap(chunks []string, overlap int) []string {
	out := make([]string, 0, len(chunks))
	out = append(out, chunks[0])
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev
		if len(prev) > overlap {
			start := len(prev) - overlap
			for start < len(prev) && !utf8.RuneStart(prev[start]) {
				start++
			}
			tail = prev[start:]
		}
		out = append(out, tail+" "+chunks[i])
	}
	return out
}

// SplitSentences splits text on '.', '!' or '?' followed by whitespace and an
// uppercase letter. The trailing remainder is always its own sentence.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		j := i + 1
		for j < len(text) && isSpaceByte(text[j]) {
			j++
		}
		if j == i+1 || j >= len(text) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(text[j:])
		if !unicode.IsUpper(r) {
			continue
		}
		if s := strings.TrimSpace(text[start : i+1]); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
