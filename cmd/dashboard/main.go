package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Apurer/admin-dashboard/internal/app/dashboard"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := dashboard.Execute(ctx, dashboard.NewRootCommand())
	stop()
	os.Exit(code)
}
