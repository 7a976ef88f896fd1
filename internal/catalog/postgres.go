package catalog

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/corrkit/corrkit/pkg/config"
	"github.com/corrkit/corrkit/pkg/postgres"
)

// LoadPostgres reads a catalog from a PostgreSQL table using the configured
// column names. The source identifier records the table, not the connection.
func LoadPostgres(ctx context.Context, client *postgres.Client, table string, cols config.ColumnMapConfig) (*Catalog, error) {
	cols = defaultColumns(cols)

	query := fmt.Sprintf(
		`SELECT %s, %s, %s, %s, %s, %s FROM %s`,
		pq.QuoteIdentifier(cols.RA), pq.QuoteIdentifier(cols.Dec), pq.QuoteIdentifier(cols.Z),
		pq.QuoteIdentifier(cols.Weight), pq.QuoteIdentifier(cols.WeightZ), pq.QuoteIdentifier(cols.WeightNoZ),
		pq.QuoteIdentifier(table),
	)
	rows, err := client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying catalog table %s: %w", table, err)
	}
	defer rows.Close()

	ctlg := &Catalog{Sources: []string{"postgres://" + table}}
	for rows.Next() {
		var ra, dec, z, w, wz, wnz float64
		if err := rows.Scan(&ra, &dec, &z, &w, &wz, &wnz); err != nil {
			return nil, fmt.Errorf("scanning catalog row from %s: %w", table, err)
		}
		ctlg.RA = append(ctlg.RA, ra)
		ctlg.Dec = append(ctlg.Dec, dec)
		ctlg.Z = append(ctlg.Z, z)
		ctlg.Weight = append(ctlg.Weight, w)
		ctlg.WeightZ = append(ctlg.WeightZ, wz)
		ctlg.WeightNoZ = append(ctlg.WeightNoZ, wnz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog table %s: %w", table, err)
	}
	return ctlg, nil
}
