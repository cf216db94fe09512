package handlers

import (
	"medilink/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger returns a request-scoped logger carrying the request path.
func getLogger(c *gin.Context) *zap.Logger {
	return utils.GetLogger().With(zap.String("path", c.FullPath()))
}
