package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hanxin1997/img-router/common"
	"github.com/hanxin1997/img-router/service"
)

type KeyRequest struct {
	Name       string `json:"name" binding:"required"`
	Value      string `json:"value" binding:"required"`
	Provider   string `json:"provider"`
	RoundRobin int    `json:"roundRobin"`
}

type KeyWeightRequest struct {
	RoundRobin int `json:"roundRobin"`
}

// GetKeys 列出全部 Key，凭证值已脱敏
// GET /api/keys
func GetKeys(c *gin.Context) {
	common.Success(c, pool.List())
}

// CreateKey 新增 Key；未指定渠道时按凭证格式自动识别
// POST /api/keys
func CreateKey(c *gin.Context) {
	var req KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequest(c, err.Error())
		return
	}

	key, err := pool.Add(req.Name, req.Value, req.Provider, req.RoundRobin)
	if err != nil {
		common.InternalServerError(c, "保存配置失败: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": key.ID, "provider": key.Provider})
}

// DeleteKey 删除 Key
// DELETE /api/keys/:id
func DeleteKey(c *gin.Context) {
	keyMutation(c, pool.Delete(c.Param("id")))
}

// BanKey 封禁 Key 24 小时
// POST /api/keys/:id/ban
func BanKey(c *gin.Context) {
	keyMutation(c, pool.Ban(c.Param("id")))
}

// UnbanKey 立即解禁 Key
// POST /api/keys/:id/unban
func UnbanKey(c *gin.Context) {
	keyMutation(c, pool.Unban(c.Param("id")))
}

// UpdateKeyWeight 调整轮询权重
// PUT /api/keys/:id/roundrobin
func UpdateKeyWeight(c *gin.Context) {
	var req KeyWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequest(c, err.Error())
		return
	}

	err := pool.UpdateWeight(c.Param("id"), req.RoundRobin)
	if errors.Is(err, service.ErrInvalidWeight) {
		common.BadRequest(c, err.Error())
		return
	}
	keyMutation(c, err)
}

// keyMutation 统一处理 Key 变更操作的结果
func keyMutation(c *gin.Context, err error) {
	switch {
	case err == nil:
		common.SuccessOK(c)
	case errors.Is(err, service.ErrKeyNotFound):
		common.NotFound(c, "Key not found")
	default:
		// 落盘失败，内存状态已回滚
		common.InternalServerError(c, "保存配置失败: "+err.Error())
	}
}
