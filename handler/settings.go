package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hanxin1997/img-router/common"
	"github.com/hanxin1997/img-router/consts"
	"github.com/hanxin1997/img-router/models"
)

// AuthCheck 前端探测是否需要登录
// GET /api/auth/check
func AuthCheck(c *gin.Context) {
	needsAuth := pool.Settings().AccessToken != ""
	message := "无需登录"
	if needsAuth {
		message = "需要登录"
	}
	c.JSON(http.StatusOK, gin.H{"needsAuth": needsAuth, "message": message})
}

type LoginRequest struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
}

// AuthLogin 登录校验
// POST /api/auth/login
func AuthLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequest(c, err.Error())
		return
	}
	submitted := req.Token
	if submitted == "" {
		submitted = req.AccessToken
	}

	accessToken := pool.Settings().AccessToken
	if accessToken == "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "无需验证"})
		return
	}
	if submitted == accessToken {
		c.JSON(http.StatusOK, gin.H{"success": true, "token": accessToken})
		return
	}
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "访问密钥错误"})
}

// GetSettings 返回全部运行设置
// GET /api/settings
func GetSettings(c *gin.Context) {
	common.Success(c, pool.Settings())
}

// UpdateSettings 部分更新设置，未提交的字段保持不变
// PUT /api/settings
func UpdateSettings(c *gin.Context) {
	patch, err := io.ReadAll(c.Request.Body)
	if err != nil {
		common.InternalServerError(c, err.Error())
		return
	}
	if err := pool.UpdateSettings(patch); err != nil {
		common.InternalServerError(c, "保存配置失败: "+err.Error())
		return
	}
	common.SuccessOK(c)
}

// GetModelSizes 各渠道的出图尺寸配置
// GET /api/model-sizes
func GetModelSizes(c *gin.Context) {
	common.Success(c, pool.ModelSizes())
}

// UpdateModelSizes 按渠道合并更新尺寸配置
// PUT /api/model-sizes
func UpdateModelSizes(c *gin.Context) {
	var patch map[string]models.ModelSize
	if err := c.ShouldBindJSON(&patch); err != nil {
		common.BadRequest(c, err.Error())
		return
	}
	if err := pool.UpdateModelSizes(patch); err != nil {
		common.InternalServerError(c, "保存配置失败: "+err.Error())
		return
	}
	common.SuccessOK(c)
}

// ProviderInfo 渠道静态信息，供前端展示
type ProviderInfo struct {
	Name            string   `json:"name"`
	Models          []string `json:"models"`
	DefaultSize     string   `json:"defaultSize"`
	DefaultEditSize string   `json:"defaultEditSize"`
}

// GetProviders 渠道信息
// GET /api/providers
func GetProviders(c *gin.Context) {
	common.Success(c, map[string]ProviderInfo{
		consts.ProviderVolcEngine: {
			Name:            "火山引擎",
			Models:          []string{consts.VolcDefaultModel},
			DefaultSize:     consts.VolcDefaultSize,
			DefaultEditSize: consts.VolcDefaultEditSize,
		},
		consts.ProviderGitee: {
			Name:            "Gitee (模力方舟)",
			Models:          []string{consts.GiteeDefaultModel},
			DefaultSize:     consts.GiteeDefaultSize,
			DefaultEditSize: consts.GiteeDefaultEditSize,
		},
		consts.ProviderModelScope: {
			Name:            "ModelScope (魔搭)",
			Models:          []string{consts.ModelScopeDefaultModel},
			DefaultSize:     consts.ModelScopeDefaultSize,
			DefaultEditSize: consts.ModelScopeDefaultEditSize,
		},
		consts.ProviderHuggingFace: {
			Name:            "HuggingFace",
			Models:          []string{consts.HuggingFaceDefaultModel},
			DefaultSize:     consts.HuggingFaceDefaultSize,
			DefaultEditSize: consts.HuggingFaceDefaultEditSize,
		},
	})
}
