package middleware

import (
	"net/http"

	"silverrock/internal/schemas"
	"silverrock/internal/utils"

	"github.com/gin-gonic/gin"
)

// ValidateAndSanitizeStruct binds the request body into a fresh T, strips markup from its
// string fields and validates it. The result is stored under utils.SanitizedPayloadKey.
// JSON and multipart bodies are both accepted, depending on the Content-Type.
func ValidateAndSanitizeStruct[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		obj := new(T)
		if err := c.ShouldBind(obj); err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}

		validator := utils.GetValidator()
		validator.SanitizeData(obj)

		if err := validator.Validate.Struct(obj); err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}

		c.Set(utils.SanitizedPayloadKey.String(), obj)
		c.Next()
	}
}
