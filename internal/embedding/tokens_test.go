package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnicodeTokenCounter(t *testing.T) {
	c := NewUnicodeTokenCounter()
	assert.Equal(t, SpecialTokens, c.CountTokens(""))
	assert.Equal(t, 3+SpecialTokens, c.CountTokens("Linear algebra basics"))
	assert.Equal(t, 4+SpecialTokens, c.CountTokens("Vectors, matrices; and norms!"))
}

func TestUnicodeTokenCounter_Additive(t *testing.T) {
	c := NewUnicodeTokenCounter()
	a, b := "first paragraph here", "second one"
	joined := c.CountTokens(a+"\n\n"+b) - SpecialTokens
	assert.Equal(t, c.CountTokens(a)-SpecialTokens+c.CountTokens(b)-SpecialTokens, joined)
}
