package managers

import "errors"

var (
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrInvalidToken             = errors.New("invalid token")
	ErrTokenNotFound            = errors.New("token not found")
	ErrEncryptionFailure        = errors.New("encryption failure")
	ErrUserNotFound             = errors.New("user not found")
	ErrNicknameTaken            = errors.New("nickname already taken")
	ErrPhoneNumberTaken         = errors.New("phone number already taken")
	ErrSelfMatching             = errors.New("sender and receiver must differ")
	ErrMatchingNotFound         = errors.New("matching request not found")
	ErrMatchingAlreadyRequested = errors.New("matching request already pending")
	ErrProfileImageNotFound     = errors.New("profile image not found")
	ErrStorageUnavailable       = errors.New("profile image storage unavailable")
)
