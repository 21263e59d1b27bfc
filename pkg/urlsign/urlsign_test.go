package urlsign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSignAndVerify(t *testing.T) {
	signer := NewSigner(testSecret)

	token, err := signer.Sign("biology/5th_grade/doc.pdf", time.Minute)
	require.NoError(t, err)

	assert.NoError(t, signer.Verify(token, "biology/5th_grade/doc.pdf"))
}

func TestVerifyRejectsOtherPath(t *testing.T) {
	signer := NewSigner(testSecret)

	token, err := signer.Sign("biology/5th_grade/doc.pdf", time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, signer.Verify(token, "biology/5th_grade/other.pdf"), ErrPathMismatch)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	signer := NewSigner(testSecret)

	token, err := signer.Sign("doc.pdf", -time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, signer.Verify(token, "doc.pdf"), ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewSigner(testSecret).Sign("doc.pdf", time.Minute)
	require.NoError(t, err)

	other := NewSigner("another-secret-another-secret-00")
	assert.ErrorIs(t, other.Verify(token, "doc.pdf"), ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	signer := NewSigner(testSecret)

	assert.ErrorIs(t, signer.Verify("not-a-token", "doc.pdf"), ErrInvalidToken)
}
