package managers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestCredentialManager tests encrypting and verifying passwords
func TestCredentialManager(t *testing.T) {
	cm := &CredentialManager{cost: bcrypt.MinCost}

	encrypted, err := cm.Encrypt("Secret1!")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1!", encrypted)

	assert.NoError(t, cm.Verify(encrypted, "Secret1!"))
	assert.ErrorIs(t, cm.Verify(encrypted, "Secret2!"), ErrInvalidCredentials)
	assert.ErrorIs(t, cm.Verify("not-a-hash", "Secret1!"), ErrEncryptionFailure)
}

// TestCredentialManagerEncryptTooLong tests that passwords beyond the bcrypt limit are reported as encryption failure
func TestCredentialManagerEncryptTooLong(t *testing.T) {
	cm := &CredentialManager{cost: bcrypt.MinCost}

	password := make([]byte, 73)
	for i := range password {
		password[i] = 'a'
	}

	_, err := cm.Encrypt(string(password))
	assert.ErrorIs(t, err, ErrEncryptionFailure)
}
