package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"silverrock/internal/managers"
	"silverrock/internal/schemas"
	"silverrock/internal/utils"
)

type errorMapping struct {
	err        error
	customErr  *schemas.CustomError
	statusCode int
}

// errorMappings translates the errors of the managers into the error responses of the API.
var errorMappings = []errorMapping{
	{managers.ErrInvalidCredentials, schemas.InvalidCredentials, http.StatusUnauthorized},
	{managers.ErrInvalidToken, schemas.Unauthorized, http.StatusUnauthorized},
	{managers.ErrTokenNotFound, schemas.Unauthorized, http.StatusUnauthorized},
	{managers.ErrEncryptionFailure, schemas.EncryptionFailure, http.StatusInternalServerError},
	{managers.ErrUserNotFound, schemas.UserNotFound, http.StatusNotFound},
	{managers.ErrNicknameTaken, schemas.NicknameTaken, http.StatusConflict},
	{managers.ErrPhoneNumberTaken, schemas.PhoneNumberTaken, http.StatusConflict},
	{managers.ErrSelfMatching, schemas.SelfMatching, http.StatusBadRequest},
	{managers.ErrMatchingNotFound, schemas.MatchingNotFound, http.StatusNotFound},
	{managers.ErrMatchingAlreadyRequested, schemas.MatchingAlreadyRequested, http.StatusConflict},
	{managers.ErrProfileImageNotFound, schemas.ProfileImageNotFound, http.StatusNotFound},
	{managers.ErrStorageUnavailable, schemas.StorageUnavailable, http.StatusServiceUnavailable},
}

// writeManagerError answers the request with the error response matching err.
// Everything unknown is reported as a database error.
func writeManagerError(c *gin.Context, err error) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.err) {
			utils.WriteAndLogError(c, mapping.customErr, mapping.statusCode, err)
			return
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
}
