package embedding

import (
	"regexp"
	"strings"
	"unicode"
)

var paragraphBreak = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)

// Chunker splits text into paragraph-aligned chunks that each fit a token budget.
// Consecutive paragraphs are packed greedily; a paragraph over budget is split at sentence
// boundaries, and a sentence over budget into word windows. A single word that alone exceeds
// the budget becomes its own chunk.
type Chunker struct {
	counter   TokenCounter
	maxTokens int
	overhead  int
}

// NewChunker returns a chunker whose chunks stay within maxTokens as measured by counter.
func NewChunker(counter TokenCounter, maxTokens int) *Chunker {
	overhead := counter.CountTokens("")
	if maxTokens <= overhead {
		maxTokens = overhead + 1
	}
	return &Chunker{counter: counter, maxTokens: maxTokens, overhead: overhead}
}

// Chunk splits text into ordered chunks. Whitespace-only text yields nil.
func (c *Chunker) Chunk(text string) []string {
	var paragraphs []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}
	return c.pack(paragraphs, "\n\n", func(p string) []string {
		return c.pack(splitSentences(p), " ", func(s string) []string {
			return c.pack(strings.Fields(s), " ", func(w string) []string { return []string{w} })
		})
	})
}

// pack greedily joins pieces with sep while the joined chunk fits the budget. Pieces
// that alone exceed the budget are handed to split and its output is packed in place.
func (c *Chunker) pack(pieces []string, sep string, split func(string) []string) []string {
	budget := c.maxTokens - c.overhead
	var (
		chunks  []string
		current []string
		used    int
	)
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, sep))
			current, used = nil, 0
		}
	}
	for _, piece := range pieces {
		size := c.counter.CountTokens(piece) - c.overhead
		if size > budget {
			flush()
			parts := split(piece)
			if len(parts) == 1 && parts[0] == piece {
				chunks = append(chunks, piece)
				continue
			}
			chunks = append(chunks, parts...)
			continue
		}
		if used+size > budget {
			flush()
		}
		current = append(current, piece)
		used += size
	}
	flush()
	return chunks
}

// splitSentences splits after '.', '!' or '?' when followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if unicode.IsSpace(runes[i+1]) {
				if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}
