package index

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/responsum/internal/models"
)

func TestNewChunker_Defaults(t *testing.T) {
	tests := []struct {
		name        string
		chunkSize   int
		overlap     int
		wantSize    int
		wantOverlap int
	}{
		{"Explicit values", 512, 100, 512, 100},
		{"Zero size falls back", 0, 100, DefaultChunkSize, 100},
		{"Negative size falls back", -1, 100, DefaultChunkSize, 100},
		{"Negative overlap falls back", 512, -1, 512, DefaultChunkOverlap},
		{"Overlap clamped below size", 100, 100, 100, 25},
		{"Overlap larger than size clamped", 100, 500, 100, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChunker(tt.chunkSize, tt.overlap)
			assert.Equal(t, tt.wantSize, c.chunkSize)
			assert.Equal(t, tt.wantOverlap, c.overlap)
		})
	}
}

func TestChunk_ShortPassage(t *testing.T) {
	c := NewChunker(1024, 200)

	chunks := c.Chunk([]models.Passage{
		{PageLabel: "1", Text: "  A short passage that fits in one chunk.  "},
	})

	assert.Len(t, chunks, 1)
	assert.Equal(t, "A short passage that fits in one chunk.", chunks[0].Content)
	assert.Equal(t, "1", chunks[0].PageLabel)
	assert.NotEmpty(t, chunks[0].ID)
}

func TestChunk_EmptyInput(t *testing.T) {
	c := NewChunker(1024, 200)

	assert.Empty(t, c.Chunk(nil))
	assert.Empty(t, c.Chunk([]models.Passage{{PageLabel: "1", Text: ""}}))
	assert.Empty(t, c.Chunk([]models.Passage{{PageLabel: "1", Text: "   \n\t  "}}))
}

func TestChunk_PageLabelsPreserved(t *testing.T) {
	c := NewChunker(1024, 200)

	chunks := c.Chunk([]models.Passage{
		{PageLabel: "1", Text: "First page text."},
		{PageLabel: "2", Text: "Second page text."},
		{PageLabel: models.PageLabelNone, Text: "Unlabeled text."},
	})

	assert.Len(t, chunks, 3)
	assert.Equal(t, "1", chunks[0].PageLabel)
	assert.Equal(t, "2", chunks[1].PageLabel)
	assert.Equal(t, models.PageLabelNone, chunks[2].PageLabel)
}

func TestChunk_SplitsLongText(t *testing.T) {
	c := NewChunker(100, 30)

	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString(fmt.Sprintf("Sentence number %d carries some words. ", i))
	}

	chunks := c.Chunk([]models.Passage{{PageLabel: "1", Text: sb.String()}})

	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 100)
		assert.NotEmpty(t, strings.TrimSpace(chunk.Content))
	}
}

func TestChunk_OverlapCarriesSentences(t *testing.T) {
	c := NewChunker(60, 30)

	text := "Alpha sentence one here. Bravo sentence two here. Charlie sentence three here. Delta sentence four here."
	chunks := c.Chunk([]models.Passage{{PageLabel: "1", Text: text}})

	assert.Greater(t, len(chunks), 1)
	// Each window seeds the next with its trailing sentences, so
	// consecutive chunks share text
	for i := 1; i < len(chunks); i++ {
		first := strings.SplitN(chunks[i].Content, ".", 2)[0] + "."
		assert.Contains(t, chunks[i-1].Content, first,
			"chunk %d should start with a sentence carried from chunk %d", i, i-1)
	}
}

func TestChunk_HardSplitOversizedSentence(t *testing.T) {
	c := NewChunker(10, 4)

	// One 20-rune "sentence" with no terminator forces fixed-stride cuts
	text := "abcdefghijklmnopqrst"
	chunks := c.Chunk([]models.Passage{{PageLabel: "1", Text: text}})

	assert.Equal(t, 3, len(chunks))
	assert.Equal(t, "abcdefghij", chunks[0].Content)
	assert.Equal(t, "ghijklmnop", chunks[1].Content)
	assert.Equal(t, "mnopqrst", chunks[2].Content)
}

func TestChunk_HardSplitRuneBoundaries(t *testing.T) {
	c := NewChunker(4, 2)

	// Multibyte runes must not be cut mid-encoding
	text := "ααββγγδδ"
	chunks := c.Chunk([]models.Passage{{PageLabel: "1", Text: text}})

	assert.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.True(t, strings.ContainsAny(chunk.Content, "αβγδ"))
		for _, r := range chunk.Content {
			assert.NotEqual(t, '�', r)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "Terminators followed by space",
			text: "First one. Second one! Third one?",
			want: []string{"First one.", "Second one!", "Third one?"},
		},
		{
			name: "Decimal point is not a boundary",
			text: "Pi is 3.14 roughly. Next sentence.",
			want: []string{"Pi is 3.14 roughly.", "Next sentence."},
		},
		{
			name: "Blank line ends a sentence",
			text: "No terminator here\n\nAnother paragraph.",
			want: []string{"No terminator here", "Another paragraph."},
		},
		{
			name: "Trailing text without terminator",
			text: "Complete sentence. Trailing fragment",
			want: []string{"Complete sentence.", "Trailing fragment"},
		},
		{
			name: "Empty input",
			text: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSentences(tt.text))
		})
	}
}
