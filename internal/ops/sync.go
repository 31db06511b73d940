package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/nesta/internal/bundle"
	"github.com/hpungsan/nesta/internal/db"
	"github.com/hpungsan/nesta/internal/errors"
)

// SyncInput contains parameters for the Sync operation.
type SyncInput struct {
	// CatalogURL overrides the configured catalog
	CatalogURL string
}

// SyncOutput contains the result of the Sync operation.
type SyncOutput struct {
	CatalogURL string `json:"catalog_url"`
	*bundle.Result
}

// Sync brings the local pack cache in line with the remote catalog and
// refreshes the pack catalog afterwards.
func Sync(ctx context.Context, env *Env, input SyncInput) (*SyncOutput, error) {
	catalogURL := strings.TrimSpace(input.CatalogURL)
	if catalogURL == "" {
		catalogURL = env.config().CatalogURL
	}

	if env.Fetcher == nil {
		return nil, errors.NewConfiguration("no HTTP fetcher configured")
	}

	syncer := &bundle.Syncer{
		CacheDir: env.CacheDir(),
		Fetcher:  env.Fetcher,
		Ledger:   db.LedgerStore{DB: env.DB},
		Log:      env.logger(),
	}
	result, err := syncer.Sync(ctx, catalogURL)
	if err != nil {
		return nil, err
	}
	if env.Catalog != nil && result.Added+result.Updated > 0 {
		env.Catalog.Refresh()
	}
	return &SyncOutput{CatalogURL: catalogURL, Result: result}, nil
}
