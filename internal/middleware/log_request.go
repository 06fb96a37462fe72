package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"silverrock/internal/utils"
)

func LogRequest() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		entry := log.WithFields(log.Fields{
			"traceId": utils.TraceIdFromContext(ctx),
			"service": utils.ExtractServiceName(),
		})
		utils.LogEntry(entry, "info", "Request received: "+ctx.Request.Method+" "+ctx.Request.URL.Path)

		ctx.Next()

		entry = entry.WithField("duration", time.Since(start).String())
		utils.LogEntry(entry, "debug", "Request finished with status "+strconv.Itoa(ctx.Writer.Status()))
	}
}
