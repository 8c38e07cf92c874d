// Command libctl runs maintenance tasks against the library database:
// migrations, catalog seeding, overdue reports and reminder dispatch.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("libctl failed", "err", err)
		os.Exit(1)
	}
}
