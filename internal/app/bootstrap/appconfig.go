// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings (ports, TLS, logging, CORS); AppConfig is
// everything specific to this application.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session token signing key for the x-auth-token JWTs. Must be strong
	// in production.
	AuthTokenKey string

	// Media storage for cause photos and videos
	MediaLocalPath string // Local storage path (e.g., "./uploads/media")
	MediaLocalURL  string // URL prefix for serving stored files (e.g., "/files/media")

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@caritas.instiq.com)
	MailFromName string // From display name (e.g., Caritas)

	// Base URL for email links (verification, password reset, story tokens)
	BaseURL string // e.g., "https://caritas.instiq.com" or "http://localhost:3000"

	// EventBuffer sizes the in-process notification queue.
	EventBuffer int

	// SuperAdmin bootstrap: the user with this email is promoted on startup.
	SuperAdminEmail string
}
