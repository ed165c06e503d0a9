package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	box, err := NewBox("correct horse")
	require.NoError(t, err)

	sealed, err := box.Seal([]byte("AA1234BB"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "AA1234BB")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "AA1234BB", string(plain))
}

func TestSealIsRandomized(t *testing.T) {
	box, _ := NewBox("k")
	a, _ := box.Seal([]byte("same"))
	b, _ := box.Seal([]byte("same"))
	assert.NotEqual(t, a, b)
}

func TestOpenWithWrongPassphraseFails(t *testing.T) {
	a, _ := NewBox("one")
	b, _ := NewBox("two")
	sealed, err := a.Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.Error(t, err)
}

func TestOpenRejectsTruncatedInput(t *testing.T) {
	box, _ := NewBox("k")
	_, err := box.Open([]byte("short"))
	assert.ErrorIs(t, err, ErrMalformed)

	sealed, err := box.Seal([]byte("secret"))
	require.NoError(t, err)
	_, err = box.Open(sealed[:saltSize+4])
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEmptyPassphraseRejected(t *testing.T) {
	_, err := NewBox("")
	assert.Error(t, err)
}
