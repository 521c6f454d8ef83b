package secrets

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forceweaver/orghealth/internal/core"
)

func TestCodecRoundTrip(t *testing.T) {
	codec, err := NewCodec("test-key")
	require.NoError(t, err)

	for _, plaintext := range []string{"", "refresh-token", "5Aep861...long.opaque.value"} {
		sealed, err := codec.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotContains(t, sealed, plaintext)

		opened, err := codec.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, plaintext, opened)
	}
}

func TestCodecNonceMakesCiphertextsDiffer(t *testing.T) {
	codec, err := NewCodec("test-key")
	require.NoError(t, err)

	a, err := codec.Encrypt("same input")
	require.NoError(t, err)
	b, err := codec.Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCodecWrongKeyIsConfigurationError(t *testing.T) {
	codec, err := NewCodec("key-one")
	require.NoError(t, err)
	other, err := NewCodec("key-two")
	require.NoError(t, err)

	sealed, err := codec.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(sealed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConfigurationError))
}

func TestCodecTamperedCiphertextIsConfigurationError(t *testing.T) {
	codec, err := NewCodec("test-key")
	require.NoError(t, err)

	sealed, err := codec.Encrypt("secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = codec.Decrypt(tampered)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConfigurationError))
}

func TestCodecMalformedInput(t *testing.T) {
	codec, err := NewCodec("test-key")
	require.NoError(t, err)

	for _, input := range []string{"not-base64!!!", "", base64.StdEncoding.EncodeToString([]byte("short"))} {
		_, err := codec.Decrypt(input)
		require.Error(t, err)
		assert.Equal(t, core.KindConfigurationError, core.KindOf(err))
	}
}

func TestNewCodecRejectsEmptyKey(t *testing.T) {
	_, err := NewCodec("")
	assert.Error(t, err)
}
