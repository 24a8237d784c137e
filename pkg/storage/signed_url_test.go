package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer, err := NewSignedURLSigner("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := signer.Generate("job-123", "reports/job-123.csv")
	require.NoError(t, err)

	parsed, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "job-123", parsed.JobID)
	assert.Equal(t, "reports/job-123.csv", parsed.Path)
	assert.True(t, parsed.ExpiresAt.After(time.Now()))
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer, err := NewSignedURLSigner("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := signer.Generate("job-123", "reports/job-123.csv")
	require.NoError(t, err)

	_, err = signer.Parse(token + "x")
	assert.Error(t, err)

	_, err = signer.Parse("not-a-token")
	assert.Error(t, err)
}

func TestSignedURLSignerRejectsExpired(t *testing.T) {
	signer, err := NewSignedURLSigner("test-secret", time.Minute)
	require.NoError(t, err)

	issued := time.Now()
	signer.now = func() time.Time { return issued }

	token, err := signer.Generate("job-123", "reports/job-123.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = signer.Parse(token)
	assert.Error(t, err)
}

func TestSignedURLSignerRejectsOtherSecret(t *testing.T) {
	a, err := NewSignedURLSigner("secret-a", time.Hour)
	require.NoError(t, err)
	b, err := NewSignedURLSigner("secret-b", time.Hour)
	require.NoError(t, err)

	token, err := a.Generate("job-123", "reports/job-123.csv")
	require.NoError(t, err)

	_, err = b.Parse(token)
	assert.Error(t, err)
}
