// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/instiq/caritas/internal/app/store/users"
	"github.com/instiq/caritas/internal/app/system/notify"
	"go.uber.org/zap"
)

// busCancel stops the event dispatcher; Shutdown calls it and then waits for
// the queue to drain.
var busCancel context.CancelFunc

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. The mail
// notifier is subscribed here so every event published during the process
// lifetime reaches it, and the dispatcher goroutine is started with a
// lifetime independent of the startup context.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	notifier := notify.New(deps.Mailer, userstore.New(deps.MongoDatabase), appCfg.BaseURL, logger)
	deps.Bus.Subscribe(notifier.Handle)

	var busCtx context.Context
	busCtx, busCancel = context.WithCancel(context.Background())
	deps.Bus.Start(busCtx)

	logger.Info("notification dispatcher started")
	return nil
}
