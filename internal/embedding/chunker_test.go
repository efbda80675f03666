package embedding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter counts whitespace-separated words plus SpecialTokens.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	return len(strings.Fields(text)) + SpecialTokens
}

func TestChunker_PacksParagraphs(t *testing.T) {
	c := NewChunker(wordCounter{}, 6+SpecialTokens)
	text := "one two three\n\nfour five six\n\nseven eight"
	chunks := c.Chunk(text)
	assert.Equal(t, []string{"one two three\n\nfour five six", "seven eight"}, chunks)
}

func TestChunker_BlankLinesWithSpaces(t *testing.T) {
	c := NewChunker(wordCounter{}, 2+SpecialTokens)
	chunks := c.Chunk("alpha beta\n   \ngamma delta")
	assert.Equal(t, []string{"alpha beta", "gamma delta"}, chunks)
}

func TestChunker_SplitsLongParagraphBySentence(t *testing.T) {
	c := NewChunker(wordCounter{}, 4+SpecialTokens)
	text := "First sentence is here. Second one follows now! Third?"
	chunks := c.Chunk(text)
	assert.Equal(t, []string{"First sentence is here.", "Second one follows now!", "Third?"}, chunks)
}

func TestChunker_SplitsLongSentenceByWords(t *testing.T) {
	c := NewChunker(wordCounter{}, 3+SpecialTokens)
	chunks := c.Chunk("a b c d e f g")
	assert.Equal(t, []string{"a b c", "d e f", "g"}, chunks)
}

func TestChunker_ChunksFitBudget(t *testing.T) {
	const budget = 20
	c := NewChunker(NewUnicodeTokenCounter(), budget)
	var b strings.Builder
	for p := 0; p < 8; p++ {
		for s := 0; s < 5; s++ {
			b.WriteString("The derivative of a polynomial is computed term by term. ")
		}
		b.WriteString("\n\n")
	}
	chunks := c.Chunk(b.String())
	require.Greater(t, len(chunks), 1)
	counter := NewUnicodeTokenCounter()
	for i, chunk := range chunks {
		assert.LessOrEqual(t, counter.CountTokens(chunk), budget, "chunk %d over budget", i)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestChunker_PreservesAllWords(t *testing.T) {
	c := NewChunker(wordCounter{}, 5+SpecialTokens)
	text := "p1 w1 w2\n\np2 w3. p2 w4 w5 w6 w7 w8 w9.\n\np3"
	chunks := c.Chunk(text)
	var words []string
	for _, ch := range chunks {
		words = append(words, strings.Fields(ch)...)
	}
	assert.Equal(t, strings.Fields(text), words)
}

func TestChunker_Empty(t *testing.T) {
	c := NewChunker(wordCounter{}, 10)
	assert.Nil(t, c.Chunk("   \n\n\t  "))
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"A b.", "C d!", "e"}, splitSentences("A b. C d! e"))
	assert.Equal(t, []string{"x=1.5 is fine."}, splitSentences("x=1.5 is fine."))
}
