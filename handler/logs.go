package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hanxin1997/img-router/common"
	"github.com/hanxin1997/img-router/pkg"
)

// GetLogs 日志文件列表与总量统计
// GET /api/logs
func GetLogs(c *gin.Context) {
	files, err := pkg.ListLogFiles()
	if err != nil {
		common.InternalServerError(c, err.Error())
		return
	}
	stats, err := pkg.LogStats()
	if err != nil {
		common.InternalServerError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "stats": stats})
}

// ReadLog 分页读取单个日志文件
// GET /api/logs/:file?limit=500&offset=0
func ReadLog(c *gin.Context) {
	name := c.Param("file")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	lines, total, err := pkg.ReadLogFile(name, limit, offset)
	if err != nil {
		common.BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": name, "lines": lines, "total": total})
}

// DeleteLog 删除单个日志文件
// DELETE /api/logs/:file
func DeleteLog(c *gin.Context) {
	name := c.Param("file")
	if err := pkg.DeleteLogFile(name); err != nil {
		common.BadRequest(c, err.Error())
		return
	}
	slog.Info("log file deleted", "file", name)
	common.SuccessOK(c)
}

type ClearLogsRequest struct {
	KeepToday *bool `json:"keepToday"`
}

// ClearLogs 清理日志文件，默认保留当天
// POST /api/logs/clear
func ClearLogs(c *gin.Context) {
	var req ClearLogsRequest
	// body 可以为空，解析失败时按默认行为处理
	_ = c.ShouldBindJSON(&req)
	keepToday := req.KeepToday == nil || *req.KeepToday

	deleted, err := pkg.ClearLogs(keepToday)
	if err != nil {
		common.InternalServerError(c, err.Error())
		return
	}
	slog.Info("log files cleared", "deleted", deleted, "keepToday", keepToday)
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedCount": deleted})
}
