package food

import (
	"food-analyzer/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// getRequestID 取得請求 ID，沒有中間件時自行產生
func getRequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	id := common.GenerateUUID()
	c.Header("X-Request-ID", id)
	return id
}

// callerIdentity 以來源 IP 作為呼叫者
func callerIdentity(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// abortWithError 寫入錯誤響應
func abortWithError(c *gin.Context, err *common.CustomError, debug bool) {
	c.AbortWithStatusJSON(err.Status, err.Response(debug))
}
