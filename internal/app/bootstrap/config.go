// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Caritas.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, auth_token_key, etc.
//   - Environment variables: CARITAS_MONGO_URI, CARITAS_AUTH_TOKEN_KEY, etc.
//   - Command-line flags: --mongo_uri, --auth_token_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "caritas", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "auth_token_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Signing key for session tokens (must be strong in production)"},

	// Media storage for cause photos and videos
	{Name: "media_local_path", Default: "./uploads/media", Desc: "Local storage path for uploaded media"},
	{Name: "media_local_url", Default: "/files/media", Desc: "URL prefix for serving stored media"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@caritas.instiq.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Caritas", Desc: "From display name"},

	// Base URL for email links (verify, reset, reason view, story tokens)
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},

	{Name: "event_buffer", Default: 64, Desc: "In-process notification queue size"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the super admin user (promoted on startup)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have access
// to configuration before any backends or handlers are built. WAFFLE's
// config.LoadWithAppConfig handles .env files, config.yaml/json/toml,
// environment variables (WAFFLE_* for core, CARITAS_* for app), and
// command-line flags, merged with precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CARITAS", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AuthTokenKey: appValues.String("auth_token_key"),

		MediaLocalPath: appValues.String("media_local_path"),
		MediaLocalURL:  appValues.String("media_local_url"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL: appValues.String("base_url"),

		EventBuffer: appValues.Int("event_buffer"),

		SuperAdminEmail: appValues.String("superadmin_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI format is checked early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.AuthTokenKey == "" {
		return fmt.Errorf("auth_token_key must not be empty")
	}
	if coreCfg.Env == "prod" && appCfg.AuthTokenKey == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("auth_token_key must be changed from the development default in production")
	}
	return nil
}
