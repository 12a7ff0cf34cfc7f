package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-chars-long-here"

func TestLogin_ValidCredentials(t *testing.T) {
	manager := NewManager("admin", "s3cret", testSecret, time.Hour)

	token, err := manager.Login("admin", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	manager := NewManager("admin", "s3cret", testSecret, time.Hour)

	_, err := manager.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = manager.Login("root", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidate_RejectsGarbage(t *testing.T) {
	manager := NewManager("admin", "s3cret", testSecret, time.Hour)

	_, err := manager.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsForeignSecret(t *testing.T) {
	issuer := NewManager("admin", "s3cret", testSecret, time.Hour)
	verifier := NewManager("admin", "s3cret", "another-secret-also-32-chars-long!!!", time.Hour)

	token, err := issuer.Login("admin", "s3cret")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsExpiredToken(t *testing.T) {
	manager := NewManager("admin", "s3cret", testSecret, time.Minute)
	manager.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	token, err := manager.Login("admin", "s3cret")
	require.NoError(t, err)

	manager.now = time.Now
	_, err = manager.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
