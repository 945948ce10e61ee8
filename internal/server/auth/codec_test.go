package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestCodec(t *testing.T) *BcryptCodec {
	t.Helper()
	c, err := NewBcryptCodec(bcrypt.MinCost)
	require.NoError(t, err)
	return c
}

func TestBcryptCodec_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	h, err := c.Hash("Str0ng!Pass")
	require.NoError(t, err)

	assert.True(t, c.Verify("Str0ng!Pass", h))
	assert.False(t, c.Verify("Str0ng!Pasz", h))
	assert.False(t, c.Verify("", h))
}

func TestBcryptCodec_SaltedHashesDiffer(t *testing.T) {
	c := newTestCodec(t)

	a, err := c.Hash("Str0ng!Pass")
	require.NoError(t, err)
	b, err := c.Hash("Str0ng!Pass")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, c.Verify("Str0ng!Pass", a))
	assert.True(t, c.Verify("Str0ng!Pass", b))
}

func TestBcryptCodec_DefaultCost(t *testing.T) {
	c, err := NewBcryptCodec(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, c.Cost())

	cost, err := bcrypt.Cost([]byte(c.DummyHash()))
	require.NoError(t, err)
	assert.Equal(t, 12, cost)
}

func TestBcryptCodec_InvalidCost(t *testing.T) {
	_, err := NewBcryptCodec(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}

func TestBcryptCodec_MalformedHashDoesNotMatch(t *testing.T) {
	c := newTestCodec(t)

	for _, h := range []string{"", "not-a-hash", "$2a$12$short", strings.Repeat("$", 60)} {
		assert.NotPanics(t, func() {
			assert.False(t, c.Verify("Str0ng!Pass", h))
		})
	}
}

func TestBcryptCodec_RejectsEmptyAndOverlong(t *testing.T) {
	c := newTestCodec(t)

	_, err := c.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = c.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = c.Hash(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestBcryptCodec_DummyHashMatchesNothingUseful(t *testing.T) {
	c := newTestCodec(t)

	_, err := bcrypt.Cost([]byte(c.DummyHash()))
	require.NoError(t, err, "dummy must be a well-formed hash so verification does full work")
	assert.False(t, c.Verify("Str0ng!Pass", c.DummyHash()))
}
