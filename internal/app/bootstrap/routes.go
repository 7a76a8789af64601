// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	causesfeature "github.com/instiq/caritas/internal/app/features/causes"
	healthfeature "github.com/instiq/caritas/internal/app/features/health"
	newsletterfeature "github.com/instiq/caritas/internal/app/features/newsletter"
	refdatafeature "github.com/instiq/caritas/internal/app/features/refdata"
	rolesfeature "github.com/instiq/caritas/internal/app/features/roles"
	storiesfeature "github.com/instiq/caritas/internal/app/features/successstories"
	usersfeature "github.com/instiq/caritas/internal/app/features/users"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every API route lives under /api; the
// health probe and stored media are served at the root.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	// Global auth middleware: resolves x-auth-token into a Principal when
	// present. Route groups enforce their own access requirements.
	r.Use(deps.Tokens.LoadPrincipal)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Stored cause media, served with pre-compressed file support
	r.Handle(appCfg.MediaLocalURL+"/*", fileserver.Handler(appCfg.MediaLocalURL, appCfg.MediaLocalPath))

	r.Route("/api", func(r chi.Router) {
		usersHandler := usersfeature.NewHandler(deps.MongoDatabase, deps.Tokens, deps.Bus, logger)
		r.Mount("/users", usersfeature.Routes(usersHandler))

		causesHandler := causesfeature.NewHandler(deps.MongoClient, deps.MongoDatabase, deps.Media, deps.Bus, logger)
		r.Mount("/causes", causesfeature.Routes(causesHandler))

		storiesHandler := storiesfeature.NewHandler(deps.MongoDatabase, logger)
		r.Mount("/success_stories", storiesfeature.Routes(storiesHandler))

		rolesHandler := rolesfeature.NewHandler(deps.MongoDatabase, logger)
		r.Mount("/roles", rolesfeature.Routes(rolesHandler))

		refHandler := refdatafeature.NewHandler(deps.MongoDatabase, logger)
		r.Mount("/categories", refdatafeature.CategoryRoutes(refHandler))
		r.Mount("/banks", refdatafeature.BankRoutes(refHandler))
		r.Mount("/account_types", refdatafeature.AccountTypeRoutes(refHandler))

		newsletterHandler := newsletterfeature.NewHandler(deps.MongoDatabase, logger)
		r.Mount("/newsletter", newsletterfeature.Routes(newsletterHandler))
	})

	return r, nil
}
