package embedding

import (
	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// SpecialTokens is the number of sequence markers ([CLS], [SEP]) added to every encoded input.
const SpecialTokens = 2

// TokenCounter estimates how many model tokens a text occupies, including special tokens.
type TokenCounter interface {
	CountTokens(text string) int
}

// UnicodeTokenCounter counts Unicode word-boundary tokens (UAX #29) plus SpecialTokens.
// Subword tokenizers produce at least as many tokens as words for ordinary text, so budgets
// should leave headroom; see EmbeddingConfig.MaxTokens.
type UnicodeTokenCounter struct {
	tokenizer *bleveunicode.UnicodeTokenizer
}

// NewUnicodeTokenCounter returns a counter backed by bleve's unicode tokenizer.
func NewUnicodeTokenCounter() *UnicodeTokenCounter {
	return &UnicodeTokenCounter{tokenizer: bleveunicode.NewUnicodeTokenizer()}
}

// CountTokens returns the word token count of text plus SpecialTokens.
func (c *UnicodeTokenCounter) CountTokens(text string) int {
	if text == "" {
		return SpecialTokens
	}
	return len(c.tokenizer.Tokenize([]byte(text))) + SpecialTokens
}
