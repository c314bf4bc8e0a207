package ports

import (
	"context"

	"jugglerbayes/domain/setting"
)

// CatalogSource supplies the setting tables an estimate runs against.
// Implementations validate the catalog before returning it.
type CatalogSource interface {
	Load(ctx context.Context) (*setting.Catalog, error)
}
