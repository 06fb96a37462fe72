// Package schemas defines the request structures for various operations in the application.
package schemas

// RegistrationRequest is a struct that represents a registration request. It is sent as
// multipart form, the optional profile image is read from the "image" part.
// PhoneNumber is required and must be a valid phone number
// Password is required and must be at least 8 characters, PasswordCheck must repeat it
// Nickname is required and must be less than 25 characters
// Birth is required and must be a date of the form YYYY-MM-DD
// Email is optional and only used for notifications
type RegistrationRequest struct {
	PhoneNumber   string `json:"phoneNumber" form:"phoneNumber" validate:"required,phone_validation"`
	Password      string `json:"password" form:"password" validate:"required,min=8,max=72,password_validation" sanitize:"-"`
	PasswordCheck string `json:"passwordCheck" form:"passwordCheck" validate:"required,eqfield=Password" sanitize:"-"`
	Gender        string `json:"gender" form:"gender" validate:"required,oneof=MALE FEMALE"`
	Nickname      string `json:"nickname" form:"nickname" validate:"required,max=25"`
	Birth         string `json:"birth" form:"birth" validate:"required,birth_validation"`
	Region        string `json:"region" form:"region" validate:"required,max=50"`
	Introduction  string `json:"introduction" form:"introduction" validate:"max=256"`
	Email         string `json:"email" form:"email" validate:"omitempty,email"`
}

// LoginRequest is a struct that represents a login request
type LoginRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,phone_validation"`
	Password    string `json:"password" validate:"required,max=72" sanitize:"-"`
}

// RefreshTokenRequest is a struct that represents a RefreshToken request
// RefreshToken is required and must be a valid refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required" sanitize:"-"`
}

// ChangeUserInfoRequest is a struct that represents a partial update of the own account.
// Fields left out of the body stay unchanged.
type ChangeUserInfoRequest struct {
	PhoneNumber  *string `json:"phoneNumber" validate:"omitempty,phone_validation"`
	Gender       *string `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
	Nickname     *string `json:"nickname" validate:"omitempty,min=1,max=25"`
	Birth        *string `json:"birth" validate:"omitempty,birth_validation"`
	Region       *string `json:"region" validate:"omitempty,min=1,max=50"`
	Introduction *string `json:"introduction" validate:"omitempty,max=256"`
}

// MatchingRequestRequest is a struct that represents a new matching request.
// The sender is always the logged in user, SenderId is only accepted for
// compatibility and must match it when given.
type MatchingRequestRequest struct {
	ReceiverId int64  `json:"receiverId" validate:"required,gt=0"`
	SenderId   *int64 `json:"senderId" validate:"omitempty,gt=0"`
}
