package schemas

// CustomError is the error body returned to clients.
// Message is a human readable explanation, Code a stable identifier of the form ERR-xxx
type CustomError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

var (
	BadRequest = &CustomError{
		Message: "The request body is invalid. Please check the request body and try again.",
		Code:    "ERR-001",
	}
	NicknameTaken = &CustomError{
		Message: "The nickname is already taken. Please try another nickname.",
		Code:    "ERR-002",
	}
	PhoneNumberTaken = &CustomError{
		Message: "The phone number is already registered. Please login instead.",
		Code:    "ERR-003",
	}
	UserNotFound = &CustomError{
		Message: "The user was not found. Please check the user id and try again.",
		Code:    "ERR-004",
	}
	InvalidCredentials = &CustomError{
		Message: "The credentials are invalid. Please check the phone number and password and try again.",
		Code:    "ERR-005",
	}
	EncryptionFailure = &CustomError{
		Message: "The password could not be processed. Please try again later.",
		Code:    "ERR-006",
	}
	SelfMatching = &CustomError{
		Message: "You cannot send a matching request to yourself.",
		Code:    "ERR-007",
	}
	MatchingNotFound = &CustomError{
		Message: "The matching request was not found. Please check the matching id and try again.",
		Code:    "ERR-008",
	}
	MatchingAlreadyRequested = &CustomError{
		Message: "A pending matching request to this user already exists.",
		Code:    "ERR-009",
	}
	NoReceivedRequests = &CustomError{
		Message: "You have not received any matching requests yet.",
		Code:    "ERR-010",
	}
	NoFriends = &CustomError{
		Message: "You do not have any matched friends yet.",
		Code:    "ERR-011",
	}
	NoNearbyUsers = &CustomError{
		Message: "There are no other users in your region yet.",
		Code:    "ERR-012",
	}
	SenderMismatch = &CustomError{
		Message: "Matching requests can only be sent on behalf of the logged in user.",
		Code:    "ERR-013",
	}
	Unauthorized = &CustomError{
		Message: "The request is unauthorized. Please login to your account.",
		Code:    "ERR-014",
	}
	StorageUnavailable = &CustomError{
		Message: "The profile image could not be stored. Please try again later.",
		Code:    "ERR-015",
	}
	ProfileImageNotFound = &CustomError{
		Message: "You have not uploaded a profile image yet.",
		Code:    "ERR-016",
	}
	DatabaseError = &CustomError{
		Message: "A database error occurred. Please try again later.",
		Code:    "ERR-020",
	}
	InternalServerError = &CustomError{
		Message: "An internal server error occurred. Please try again later.",
		Code:    "ERR-021",
	}
)
