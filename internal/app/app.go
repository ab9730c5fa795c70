// Package app 装配依赖并对外提供 HTTP 服务入口
package app

import (
	"log/slog"
	"net/http"

	"github.com/sessionwatch/heron/internal/conf"
)

// NewHTTPHandler 按配置装配所有领域依赖，返回路由与资源释放函数
func NewHTTPHandler(bc *conf.Bootstrap, log *slog.Logger) (http.Handler, func(), error) {
	return wireApp(bc, log)
}
