// -----------------------------------------------------------------------
// Chunker - Sentence-aware text splitting for retrieval indexing
// -----------------------------------------------------------------------

package index

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/ternarybob/responsum/internal/models"
)

// DefaultChunkSize is the default target chunk size in characters.
const DefaultChunkSize = 1024

// DefaultChunkOverlap is the default overlap between chunks in characters.
const DefaultChunkOverlap = 200

// Chunker splits passage text into sentence-aware windows. Windows are
// packed with whole sentences up to the target size, and consecutive
// windows share trailing sentences up to the overlap budget.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker with the given target size and overlap.
// Non-positive values fall back to the defaults.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	// Ensure overlap doesn't exceed chunk size
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}

	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Chunk splits the passages into index-ready chunks. Each chunk carries
// the page label of the passage it was cut from; passage order is
// preserved.
func (c *Chunker) Chunk(passages []models.Passage) []models.Chunk {
	var chunks []models.Chunk
	for _, passage := range passages {
		for _, piece := range c.splitText(passage.Text) {
			chunks = append(chunks, models.Chunk{
				ID:        uuid.New().String(),
				Content:   piece,
				PageLabel: passage.PageLabel,
			})
		}
	}
	return chunks
}

// splitText splits one passage into windows of whole sentences.
func (c *Chunker) splitText(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) <= c.chunkSize {
		return []string{trimmed}
	}

	sentences := splitSentences(trimmed)

	var pieces []string
	var window []string
	windowLen := 0

	// flush emits the current window and seeds the next one with trailing
	// sentences up to the overlap budget
	flush := func() {
		if len(window) == 0 {
			return
		}
		piece := strings.TrimSpace(strings.Join(window, " "))
		if piece != "" {
			pieces = append(pieces, piece)
		}

		var carry []string
		carryLen := 0
		for i := len(window) - 1; i >= 0; i-- {
			length := len(window[i]) + 1
			if carryLen+length > c.overlap {
				break
			}
			carry = append([]string{window[i]}, carry...)
			carryLen += length
		}
		window = carry
		windowLen = carryLen
	}

	for _, sentence := range sentences {
		// A single sentence larger than the window is hard-split on rune
		// boundaries with the fixed stride
		if len(sentence) > c.chunkSize {
			flush()
			pieces = append(pieces, c.hardSplit(sentence)...)
			window = nil
			windowLen = 0
			continue
		}

		if windowLen > 0 && windowLen+len(sentence)+1 > c.chunkSize {
			flush()
		}

		window = append(window, sentence)
		windowLen += len(sentence) + 1
	}

	if len(window) > 0 {
		piece := strings.TrimSpace(strings.Join(window, " "))
		if piece != "" {
			pieces = append(pieces, piece)
		}
	}

	return pieces
}

// hardSplit cuts an oversized sentence into fixed windows, stepping by
// chunk size minus overlap.
func (c *Chunker) hardSplit(sentence string) []string {
	runes := []rune(sentence)
	stride := c.chunkSize - c.overlap

	var pieces []string
	for start := 0; start < len(runes); start += stride {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return pieces
}

// splitSentences breaks text at sentence boundaries, keeping terminators
// attached. A terminator counts only when followed by whitespace, and a
// blank line always ends the current sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		boundary := false
		switch r {
		case '.', '!', '?':
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				boundary = true
			}
		case '\n':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				boundary = true
			}
		}

		if boundary {
			if sentence := strings.TrimSpace(current.String()); sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}
