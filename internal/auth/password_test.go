package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3nha-forte")
	require.NoError(t, err)

	assert.NotEqual(t, "s3nha-forte", hash)
	assert.True(t, CheckPassword(hash, "s3nha-forte"))
	assert.False(t, CheckPassword(hash, "s3nha-fraca"))
	assert.False(t, CheckPassword("not-a-hash", "s3nha-forte"))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73))
	assert.Error(t, err)
}
