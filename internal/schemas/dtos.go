package schemas

// ErrorDTO is a struct that represents an error response
// Error is the custom error, see CustomError
type ErrorDTO struct {
	Error CustomError `json:"error"`
}

// MetadataDTO describes the running API
type MetadataDTO struct {
	ApiVersion  string `json:"apiVersion"`
	ApiName     string `json:"apiName"`
	PullRequest string `json:"pullRequest,omitempty"`
}

// ProfileImageDTO is a struct that represents a stored profile image
// ImageURL is the public URL of the image
// FileName is the storage key of the image
type ProfileImageDTO struct {
	ImageURL string `json:"imageUrl"`
	FileName string `json:"fileName"`
}

// UserProfileDTO is the public profile of a user as shown to other users,
// e.g. as sender of a matching request or as matched friend
type UserProfileDTO struct {
	UserId       int64            `json:"userId"`
	Gender       string           `json:"gender"`
	Nickname     string           `json:"nickname"`
	Birth        string           `json:"birth"`
	Region       string           `json:"region"`
	Introduction string           `json:"introduction"`
	ProfileImage *ProfileImageDTO `json:"profileImage"`
}

// UserInfoDTO is the private view a user gets of their own account
type UserInfoDTO struct {
	PhoneNumber  string           `json:"phoneNumber"`
	Gender       string           `json:"gender"`
	Nickname     string           `json:"nickname"`
	Birth        string           `json:"birth"`
	Region       string           `json:"region"`
	Introduction string           `json:"introduction"`
	Email        string           `json:"email,omitempty"`
	ProfileImage *ProfileImageDTO `json:"profileImage"`
}

// RegisteredUserDTO is returned after a successful registration
type RegisteredUserDTO struct {
	UserId   int64  `json:"userId"`
	Nickname string `json:"nickname"`
}

// NicknameAvailabilityDTO answers whether a nickname can still be used
type NicknameAvailabilityDTO struct {
	Nickname  string `json:"nickname"`
	Available bool   `json:"available"`
}

// TokenPairDTO is a struct that represents a token response
// Token is the main JWT token used for auth
// RefreshToken is the refresh token used to get a new token
type TokenPairDTO struct {
	UserId                int64  `json:"userId"`
	Token                 string `json:"token"`
	RefreshToken          string `json:"refreshToken"`
	TokenExpiresAt        string `json:"tokenExpiresAt"`
	RefreshTokenExpiresAt string `json:"refreshTokenExpiresAt"`
}

// MatchingRequestDTO is a struct that represents a matching request response
type MatchingRequestDTO struct {
	MatchingId   int64  `json:"matchingId"`
	SenderId     int64  `json:"senderId"`
	ReceiverId   int64  `json:"receiverId"`
	Success      bool   `json:"success"`
	CreationDate string `json:"creationDate"`
}

// RecordsDTO wraps list responses
type RecordsDTO struct {
	Records interface{} `json:"records"`
}
