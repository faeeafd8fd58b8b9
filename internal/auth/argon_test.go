package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("p1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))
	assert.NotContains(t, hash, "p1")

	other, err := HashPassword("p1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts must differ")
}

func TestHashPassword_Rejects(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)

	_, err = HashPassword(strings.Repeat("x", MaxPasswordLength+1))
	assert.Error(t, err)
}

func TestVerifyPassword_Argon(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	ok, err := VerifyPassword(hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_Bcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("p1"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := VerifyPassword(string(legacy), "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(string(legacy), "p2")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, NeedsRehash(string(legacy)))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, h := range []string{"", "plaintext", "$argon2i$v=19$m=1,t=1,p=1$a$b", "$2a$broken"} {
		ok, err := VerifyPassword(h, "anything")
		assert.NoError(t, err, h)
		assert.False(t, ok, h)
	}
}

func TestVerifyPassword_TooLong(t *testing.T) {
	hash, err := HashPassword("short")
	require.NoError(t, err)

	ok, err := VerifyPassword(hash, strings.Repeat("x", MaxPasswordLength+1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNeedsRehash_Argon(t *testing.T) {
	hash, err := HashPassword("p1")
	require.NoError(t, err)
	assert.False(t, NeedsRehash(hash))
}
