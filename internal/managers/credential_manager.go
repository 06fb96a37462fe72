package managers

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialMgr encrypts passwords on registration and verifies them on login.
type CredentialMgr interface {
	Encrypt(password string) (string, error)
	Verify(encrypted, password string) error
}

type CredentialManager struct {
	cost int
}

func NewCredentialManager() *CredentialManager {
	return &CredentialManager{cost: bcrypt.DefaultCost}
}

func (cm *CredentialManager) Encrypt(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cm.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptionFailure, err)
	}

	return string(hashed), nil
}

// Verify reports ErrInvalidCredentials on a mismatch and ErrEncryptionFailure
// when the stored value is not a bcrypt hash at all.
func (cm *CredentialManager) Verify(encrypted, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encrypted), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidCredentials
	default:
		return fmt.Errorf("%w: %w", ErrEncryptionFailure, err)
	}
}
