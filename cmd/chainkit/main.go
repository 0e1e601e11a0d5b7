package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ChainKit/pkg/logger"
)

// main 是 chainkit 命令行的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	err := newRootCmd(c).ExecuteContext(ctx)
	c.close()
	if err != nil {
		logger.L().Error("chainkit 运行失败", "error", err)
		os.Exit(1)
	}
}
