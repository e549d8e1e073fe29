package graceful

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

// Operation is a cleanup function run during shutdown.
type Operation func(ctx context.Context) error

// GracefulShutdown waits for SIGINT/SIGTERM, then runs all operations
// concurrently with the given timeout. The returned channel is closed when
// every operation has finished.
func GracefulShutdown(ctx context.Context, timeout time.Duration, ops map[string]Operation, log *slog.Logger) <-chan struct{} {
	wait := make(chan struct{})

	go func() {
		s := make(chan os.Signal, 1)
		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
		<-s

		log.Info("shutting down")

		timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var wg sync.WaitGroup
		for name, op := range ops {
			wg.Add(1)
			go func(name string, op Operation) {
				defer wg.Done()

				log.Info("cleaning up", slog.String("operation", name))
				if err := op(timeoutCtx); err != nil {
					log.Error("cleanup failed", slog.String("operation", name), sl.Err(err))
					return
				}
				log.Info("cleanup finished", slog.String("operation", name))
			}(name, op)
		}
		wg.Wait()

		close(wait)
	}()

	return wait
}
