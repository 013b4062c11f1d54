// Package appid resolves the folio application identity (binary name, env
// prefix, config name) through gofulmen/appidentity.
package appid

import (
	"context"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/folio/folio/internal/assets/appidentity"
)

func init() {
	// An explicit FULMEN_APP_IDENTITY_PATH or .fulmen/app.yaml still wins; the
	// embedded copy only covers standalone binaries.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

// Get returns the cached application identity.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}
