package handler

import (
	"github.com/hanxin1997/img-router/service"
)

var (
	pool       *service.KeyPool
	dispatcher *service.Dispatcher
)

// Init 注入共享的 Key 池，所有 handler 通过它访问配置与调度
func Init(p *service.KeyPool) {
	pool = p
	dispatcher = &service.Dispatcher{Pool: p}
}
