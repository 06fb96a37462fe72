package utils

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
)

// TransactionTimeout bounds every database interaction of a single request.
const TransactionTimeout = 10 * time.Second

var errMissingIdentity = errors.New("no authenticated user in request context")

// RequestContext derives the context handed to managers from the incoming request.
// It carries the request deadline plus TransactionTimeout and the trace id used for logging.
func RequestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), TransactionTimeout)
	ctx = context.WithValue(ctx, TraceIdKey, TraceIdFromContext(c))
	return ctx, cancel
}

// CurrentUserId returns the id of the caller as established by the JWT middleware.
func CurrentUserId(c *gin.Context) (int64, error) {
	value, exists := c.Get(UserIdKey.String())
	if !exists {
		return 0, errMissingIdentity
	}
	userId, ok := value.(int64)
	if !ok || userId <= 0 {
		return 0, errMissingIdentity
	}
	return userId, nil
}

// RawToken returns the bearer token of the current request as sent by the client.
func RawToken(c *gin.Context) (string, error) {
	value, exists := c.Get(RawTokenKey.String())
	if !exists {
		return "", errMissingIdentity
	}
	token, ok := value.(string)
	if !ok || token == "" {
		return "", errMissingIdentity
	}
	return token, nil
}

// SanitizedPayload returns the request body bound and validated by middleware.ValidateAndSanitizeStruct.
func SanitizedPayload[T any](c *gin.Context) (*T, error) {
	value, exists := c.Get(SanitizedPayloadKey.String())
	if !exists {
		return nil, errors.New("no payload in request context")
	}
	obj, ok := value.(*T)
	if !ok {
		return nil, errors.New("unexpected payload type in request context")
	}
	return obj, nil
}
