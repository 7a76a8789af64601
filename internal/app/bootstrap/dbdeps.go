// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/instiq/caritas/internal/app/system/events"
	"github.com/instiq/caritas/internal/app/system/mailer"
	"github.com/instiq/caritas/internal/app/system/media"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backend dependencies shared by the lifecycle hooks:
// the Mongo connection plus the long-lived collaborators built from config
// (token manager, media store, mailer, event bus).
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Tokens *auth.TokenManager
	Media  media.Store
	Mailer *mailer.Mailer
	Bus    *events.Bus
}
