package catalog

import (
	"context"
	"fmt"

	"github.com/corrkit/corrkit/pkg/config"
	"github.com/corrkit/corrkit/pkg/postgres"
)

// Load dispatches to the configured source. The postgres client may be nil
// when only CSV sources are configured.
func Load(ctx context.Context, src config.CatalogSourceConfig, pg *postgres.Client) (*Catalog, error) {
	switch src.Source {
	case "csv":
		return LoadCSV(src.Path, src.Columns)
	case "postgres":
		if pg == nil {
			return nil, fmt.Errorf("catalog source is postgres but no client is configured")
		}
		return LoadPostgres(ctx, pg, src.Table, src.Columns)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", src.Source)
	}
}
