package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success 正常 JSON 响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// SuccessOK 仅表示操作成功的响应
func SuccessOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
}

func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"error": message})
}

func InternalServerError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

func ServiceUnavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": message})
}
