// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/instiq/caritas/internal/app/store/users"
	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/instiq/caritas/internal/app/system/events"
	"github.com/instiq/caritas/internal/app/system/indexes"
	"github.com/instiq/caritas/internal/app/system/mailer"
	"github.com/instiq/caritas/internal/app/system/media"
	"github.com/instiq/caritas/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the Mongo connection and builds the long-lived
// collaborators that depend only on config: token manager, media store,
// mailer, and the event bus.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	tokens, err := auth.NewTokenManager(appCfg.AuthTokenKey)
	if err != nil {
		return DBDeps{}, fmt.Errorf("token manager: %w", err)
	}

	mediaStore, err := media.NewLocal(appCfg.MediaLocalPath, appCfg.MediaLocalURL)
	if err != nil {
		return DBDeps{}, fmt.Errorf("media store: %w", err)
	}

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Tokens:        tokens,
		Media:         mediaStore,
		Mailer:        mail,
		Bus:           events.NewBus(logger, appCfg.EventBuffer),
	}, nil
}

// EnsureSchema reconciles the index set and promotes the configured super
// admin. Both are idempotent; re-running on every boot is the point.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("database indexes reconciled")

	if appCfg.SuperAdminEmail != "" {
		if err := userstore.New(deps.MongoDatabase).PromoteSuperAdmin(ctx, appCfg.SuperAdminEmail); err != nil {
			return fmt.Errorf("promote super admin: %w", err)
		}
		logger.Info("super admin promotion checked",
			zap.String("email", appCfg.SuperAdminEmail))
	}
	return nil
}
