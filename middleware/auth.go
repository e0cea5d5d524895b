package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hanxin1997/img-router/common"
	"github.com/hanxin1997/img-router/service"
)

// AuthAdmin 管理接口鉴权：校验 Bearer token 与配置的访问密钥。
// 未配置访问密钥时不做验证，与前端"无需登录"逻辑对应。
func AuthAdmin(pool *service.KeyPool) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := pool.Settings().AccessToken
		if accessToken == "" {
			return
		}

		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") || parts[1] != accessToken {
			common.Unauthorized(c, "未授权访问，请登录")
			c.Abort()
			return
		}
	}
}
