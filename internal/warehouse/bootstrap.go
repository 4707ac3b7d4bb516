package warehouse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
)

// CreateTables creates the dataset and every ledger table from the
// canonical row schemas: one transactions and one products table per
// supported country, plus the classification table. Tables are
// day-partitioned on report_date. Existing datasets and tables are left
// untouched, so the command is safe to re-run.
func CreateTables(ctx context.Context, client *bigquery.Client, dataset string) error {
	ds := client.Dataset(dataset)
	if err := ds.Create(ctx, &bigquery.DatasetMetadata{Name: dataset}); err != nil && !alreadyExists(err) {
		return fmt.Errorf("CreateTables: creating dataset %s: %w", dataset, err)
	}

	tables := map[string]bigquery.Schema{
		ClassificationsTable: ClassificationsSchema(),
	}
	for key, table := range tableMap {
		if schemaFor(key) != nil {
			tables[table] = schemaFor(key)
		}
	}

	for table, schema := range tables {
		meta := &bigquery.TableMetadata{
			Schema: schema,
			TimePartitioning: &bigquery.TimePartitioning{
				Type:  bigquery.DayPartitioningType,
				Field: "report_date",
			},
		}
		if err := ds.Table(table).Create(ctx, meta); err != nil {
			if alreadyExists(err) {
				continue
			}
			return fmt.Errorf("CreateTables: creating table %s: %w", table, err)
		}
	}

	return nil
}

func schemaFor(routeKey string) bigquery.Schema {
	switch {
	case strings.HasSuffix(routeKey, ReportTransactions):
		return TransactionsSchema()
	case strings.HasSuffix(routeKey, ReportProducts):
		return ProductsSchema()
	}
	return nil
}

func alreadyExists(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}
