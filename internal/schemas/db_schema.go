// Package schemas defines the data structures
package schemas

import "time"

// User represents the data model for a user in the system.
type User struct {
	ID           int64     `json:"id"`           // Unique identifier for the user.
	PhoneNumber  string    `json:"phone_number"` // Phone number, used as login key.
	Gender       string    `json:"gender"`       // Gender of the user.
	Nickname     string    `json:"nickname"`     // Unique nickname of the user.
	Birth        string    `json:"birth"`        // Birth date as supplied at registration.
	Region       string    `json:"region"`       // Region the user lives in.
	Password     string    `json:"password"`     // Encrypted password of the user.
	Introduction string    `json:"introduction"` // Free-text introduction.
	Email        string    `json:"email"`        // Optional address for notifications.
	CreatedAt    time.Time `json:"created_at"`   // Timestamp when the user was created.
}

// Profile represents the profile image of a user. A user has at most one.
type Profile struct {
	ID       int64  `json:"id"`        // Unique identifier for the profile.
	UserID   int64  `json:"user_id"`   // Identifier of the owning user.
	ImageURL string `json:"image_url"` // Public URL of the image.
	FileName string `json:"file_name"` // Storage key of the image.
}

// SessionToken is the currently valid token pair of a user. There is at most one per user.
type SessionToken struct {
	ID           int64  `json:"id"`            // Unique identifier for the session token.
	UserID       int64  `json:"user_id"`       // Identifier of the owning user.
	AccessToken  string `json:"access_token"`  // Access token, empty if unset.
	RefreshToken string `json:"refresh_token"` // Refresh token, empty if unset.
}

// MatchingRequest is a directed proposal from sender to receiver.
// Success is false while the request is pending and true once it was accepted.
// Rejected requests are deleted.
type MatchingRequest struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Success    bool      `json:"success"`
	CreatedAt  time.Time `json:"created_at"`
}

// Pending reports whether the request still awaits a decision of the receiver.
func (m *MatchingRequest) Pending() bool {
	return !m.Success
}

// UserProfile is the public part of a user together with the profile image, if any.
type UserProfile struct {
	UserID       int64
	Gender       string
	Nickname     string
	Birth        string
	Region       string
	Introduction string
	Image        *Profile
}

// UserInfoPatch is a partial update of a user. Nil fields stay unchanged.
type UserInfoPatch struct {
	PhoneNumber  *string
	Gender       *string
	Nickname     *string
	Birth        *string
	Region       *string
	Introduction *string
}
