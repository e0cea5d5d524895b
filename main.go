package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/hanxin1997/img-router/consts"
	"github.com/hanxin1997/img-router/handler"
	"github.com/hanxin1997/img-router/middleware"
	"github.com/hanxin1997/img-router/models"
	"github.com/hanxin1997/img-router/pkg"
	"github.com/hanxin1997/img-router/service"
	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback"
)

func init() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}
	if err := pkg.InitLogger(logDir); err != nil {
		slog.Error("Failed to init file logger, logging to stdout only", "error", err)
	}
}

func main() {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	store, err := models.Open(filepath.Join(dataDir, consts.ConfigFileName))
	if err != nil {
		slog.Error("Failed to open config store", "error", err)
		os.Exit(1)
	}

	pool := service.NewKeyPool(store)
	handler.Init(pool)

	router := gin.Default()

	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/v1"})))
	router.Use(corsMiddleware())

	// OpenAI 兼容入口
	router.POST("/v1/chat/completions", handler.ChatCompletionsHandler)

	api := router.Group("/api")
	{
		// 登录相关接口无需认证
		api.GET("/auth/check", handler.AuthCheck)
		api.POST("/auth/login", handler.AuthLogin)

		admin := api.Group("", middleware.AuthAdmin(pool))
		{
			admin.GET("/keys", handler.GetKeys)
			admin.POST("/keys", handler.CreateKey)
			admin.DELETE("/keys/:id", handler.DeleteKey)
			admin.POST("/keys/:id/ban", handler.BanKey)
			admin.POST("/keys/:id/unban", handler.UnbanKey)
			admin.PUT("/keys/:id/roundrobin", handler.UpdateKeyWeight)

			admin.GET("/settings", handler.GetSettings)
			admin.PUT("/settings", handler.UpdateSettings)
			admin.GET("/model-sizes", handler.GetModelSizes)
			admin.PUT("/model-sizes", handler.UpdateModelSizes)
			admin.GET("/providers", handler.GetProviders)

			admin.GET("/health", handler.HealthCheck)
			admin.GET("/stats", handler.GetStats)

			admin.GET("/logs", handler.GetLogs)
			admin.GET("/logs/:file", handler.ReadLog)
			admin.DELETE("/logs/:file", handler.DeleteLog)
			admin.POST("/logs/clear", handler.ClearLogs)
		}
	}

	// 管理界面静态资源，前端路由统一回退到 index.html
	uiDir := os.Getenv("UI_DIR")
	if uiDir == "" {
		uiDir = "ui"
	}
	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/v1") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
			return
		}
		file := filepath.Join(uiDir, filepath.Clean("/"+path))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(uiDir, "index.html"))
	})

	port := os.Getenv("PORT")
	if port == "" {
		if p := pool.Settings().APIPort; p > 0 {
			port = strconv.Itoa(p)
		} else {
			port = consts.DefaultPort
		}
	}
	slog.Info("img-router listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
