package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hanxin1997/img-router/models"
	"github.com/samber/lo"
)

const version = "v1.7.0"

// HealthCheck 健康检查
// GET /api/health
func HealthCheck(c *gin.Context) {
	keys := pool.List()
	active := lo.CountBy(keys, func(k models.APIKey) bool { return !k.Banned })
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"service":    "img-router-ui",
		"version":    version,
		"keysCount":  len(keys),
		"activeKeys": active,
	})
}

// GetStats Key 池使用统计
// GET /api/stats
func GetStats(c *gin.Context) {
	keys := pool.List()
	banned := lo.CountBy(keys, func(k models.APIKey) bool { return k.Banned })
	totalUsage := lo.SumBy(keys, func(k models.APIKey) int { return k.UsedCount })
	byProvider := lo.CountValuesBy(keys, func(k models.APIKey) string { return k.Provider })

	c.JSON(http.StatusOK, gin.H{
		"totalKeys":  len(keys),
		"activeKeys": len(keys) - banned,
		"bannedKeys": banned,
		"totalUsage": totalUsage,
		"byProvider": byProvider,
	})
}
