package phicrypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, err := NewService("test-key")
	require.NoError(t, err)

	inputs := []string{
		"chest pain since yesterday",
		"multi\nline\nnotes",
		"unicode: 北京 ünïcode ✓",
		" ",
	}

	for _, in := range inputs {
		token, err := svc.Encrypt(in)
		require.NoError(t, err)
		assert.NotEqual(t, in, token)

		out, err := svc.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestEmptyStringIsIdentity(t *testing.T) {
	svc, err := NewService("test-key")
	require.NoError(t, err)

	token, err := svc.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", token)

	out, err := svc.Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	svc, err := NewService("test-key")
	require.NoError(t, err)

	a, err := svc.Encrypt("same plaintext")
	require.NoError(t, err)
	b, err := svc.Encrypt("same plaintext")
	require.NoError(t, err)

	// Random nonce per call
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	svc, err := NewService("test-key")
	require.NoError(t, err)

	_, err = svc.Decrypt("not-base64!!!")
	assert.Error(t, err)

	_, err = svc.Decrypt("c2hvcnQ=")
	assert.Error(t, err)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	svcA, err := NewService("key-a")
	require.NoError(t, err)
	svcB, err := NewService("key-b")
	require.NoError(t, err)

	token, err := svcA.Encrypt("sensitive")
	require.NoError(t, err)

	_, err = svcB.Decrypt(token)
	assert.Error(t, err)
}

func TestDecryptOrPlaceholder(t *testing.T) {
	svc, err := NewService("test-key")
	require.NoError(t, err)

	token, err := svc.Encrypt("readable")
	require.NoError(t, err)
	assert.Equal(t, "readable", DecryptOrPlaceholder(svc, token, "Unable to decrypt."))

	assert.Equal(t, "Unable to decrypt.", DecryptOrPlaceholder(svc, "broken-token", "Unable to decrypt."))
	assert.Equal(t, "Unable to decrypt.", DecryptOrPlaceholder(svc, "", "Unable to decrypt."))
}
