package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "recommendations:mathe:56.pdf", Key("mathe", "56.pdf"))
	assert.Equal(t, "recommendations:mathe:", NamespacePrefix("mathe"))
}

func TestParseKey(t *testing.T) {
	ns, id, err := ParseKey("recommendations:mathe:56.pdf")
	require.NoError(t, err)
	assert.Equal(t, "mathe", ns)
	assert.Equal(t, "56.pdf", id)

	ns, id, err = ParseKey("recommendations:zb:urn:isbn:1")
	require.NoError(t, err)
	assert.Equal(t, "zb", ns)
	assert.Equal(t, "urn:isbn:1", id)

	for _, bad := range []string{"", "recommendations", "recommendations:mathe", "other:mathe:1", "recommendations::1", "recommendations:mathe:"} {
		_, _, err := ParseKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}

func TestValidateKeyParts(t *testing.T) {
	assert.NoError(t, ValidateKeyParts("mathe", "1.pdf"))
	assert.ErrorIs(t, ValidateKeyParts("a:b", "1"), ErrInvalidKey)
	assert.ErrorIs(t, ValidateKeyParts("", "1"), ErrInvalidKey)
	assert.ErrorIs(t, ValidateKeyParts("a", ""), ErrInvalidKey)
}

func TestNormalizeSet(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, normalizeSet([]string{"b", "a", "b"}))
	assert.NotNil(t, normalizeSet(nil))
}
