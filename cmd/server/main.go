package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ixugo/goddd/pkg/system"
	"github.com/sessionwatch/heron/internal/app"
	"github.com/sessionwatch/heron/internal/conf"
)

// 构建时通过 ldflags 注入
var buildVersion = "dev"

func main() {
	var configPath string
	flag.StringVar(&configPath, "c", filepath.Join("configs", "config.toml"), "配置文件路径")
	flag.Parse()

	bc, err := conf.SetupConfig(filepath.Join(system.Getwd(), configPath))
	if err != nil {
		fmt.Fprintln(os.Stderr, "加载配置失败:", err)
		os.Exit(1)
	}
	bc.BuildVersion = buildVersion

	level := slog.LevelInfo
	if bc.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	handler, cleanup, err := app.NewHTTPHandler(bc, log)
	if err != nil {
		slog.Error("服务装配失败", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	svr := &http.Server{
		Addr:         fmt.Sprintf(":%d", bc.Server.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}

	go func() {
		slog.Info("HTTP 服务已启动", "port", bc.Server.HTTP.Port, "version", buildVersion)
		if err := svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP 服务异常退出", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("收到退出信号，开始优雅关闭")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("优雅关闭失败", "err", err)
	}
	slog.Info("服务已退出")
}
