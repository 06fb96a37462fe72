package utils

const (
	// MatchingIdKey is the key for the matching request ID used in routing parameters.
	MatchingIdKey = "matchingId"

	// NicknameParamKey is the key for the nickname used in query parameters.
	NicknameParamKey = "nickname"

	// ProfileImageFormKey is the multipart part carrying a profile image.
	ProfileImageFormKey = "image"
)
