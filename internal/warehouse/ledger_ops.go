package warehouse

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// ExistingTransactionIDsWithClient returns the set of transaction IDs
// already loaded for a network and country. The reconciler consults this
// set to decide which incoming records supersede persisted rows.
func ExistingTransactionIDsWithClient(ctx context.Context, client *bigquery.Client, projectID, dataset, network, country string) (map[string]struct{}, error) {
	table, err := TableFor(country, ReportTransactions)
	if err != nil {
		return nil, err
	}

	q := client.Query(fmt.Sprintf(`
		SELECT DISTINCT transaction_id
		FROM `+"`%s.%s.%s`"+`
		WHERE affiliate_network = @network
	`, projectID, dataset, table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "network", Value: network},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ExistingTransactionIDs: query read: %w", err)
	}

	ids := map[string]struct{}{}
	for {
		var row struct {
			TransactionID string `bigquery:"transaction_id"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ExistingTransactionIDs: iter next: %w", err)
		}
		ids[row.TransactionID] = struct{}{}
	}

	return ids, nil
}

// DeleteTransactionRecordWithClient removes a previously loaded
// transaction-level row so its replacement can be appended.
func DeleteTransactionRecordWithClient(ctx context.Context, client *bigquery.Client, projectID, dataset, network, country, transactionID string) error {
	table, err := TableFor(country, ReportTransactions)
	if err != nil {
		return err
	}

	q := client.Query(fmt.Sprintf(`
		DELETE FROM `+"`%s.%s.%s`"+`
		WHERE transaction_id = @transaction_id
		  AND affiliate_network = @network
	`, projectID, dataset, table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: transactionID},
		{Name: "network", Value: network},
	}

	if err := runQueryJob(ctx, q); err != nil {
		return fmt.Errorf("DeleteTransactionRecord %s: %w", transactionID, err)
	}
	return nil
}

// DeleteProductRecordWithClient removes a previously loaded product row
// keyed by (transaction ID, network product ID).
func DeleteProductRecordWithClient(ctx context.Context, client *bigquery.Client, projectID, dataset, network, country, transactionID, productID string) error {
	table, err := TableFor(country, ReportProducts)
	if err != nil {
		return err
	}

	q := client.Query(fmt.Sprintf(`
		DELETE FROM `+"`%s.%s.%s`"+`
		WHERE transaction_id = @transaction_id
		  AND network_product_id = @product_id
		  AND affiliate_network = @network
	`, projectID, dataset, table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: transactionID},
		{Name: "product_id", Value: productID},
		{Name: "network", Value: network},
	}

	if err := runQueryJob(ctx, q); err != nil {
		return fmt.Errorf("DeleteProductRecord %s/%s: %w", transactionID, productID, err)
	}
	return nil
}

// LoadReportWithClient ingests a gzip NDJSON load file from GCS into the
// given table, appending to what is already there. This is the warehouse
// side of the delete-and-reissue pattern: deletions run first, then the
// replacement rows arrive by reference to the uploaded object.
func LoadReportWithClient(ctx context.Context, client *bigquery.Client, projectID, dataset, table, gcsURI string) error {
	ref := bigquery.NewGCSReference(gcsURI)
	ref.SourceFormat = bigquery.JSON

	loader := client.DatasetInProject(projectID, dataset).Table(table).LoaderFrom(ref)
	loader.WriteDisposition = bigquery.WriteAppend

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("LoadReport %s: running load job: %w", table, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("LoadReport %s: waiting for job: %w", table, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("LoadReport %s: job error: %w", table, err)
	}

	return nil
}

// UnclassifiedProductsWithClient returns distinct product listings that
// have no vertical tag yet, up to limit.
func UnclassifiedProductsWithClient(ctx context.Context, client *bigquery.Client, projectID, dataset, country string, limit int) ([]*ProductListing, error) {
	table, err := TableFor(country, ReportProducts)
	if err != nil {
		return nil, err
	}

	q := client.Query(fmt.Sprintf(`
		SELECT DISTINCT
			p.network_product_id,
			p.product_id,
			p.product_name,
			p.category
		FROM `+"`%s.%s.%s`"+` p
		LEFT JOIN `+"`%s.%s.%s`"+` c
		  ON p.network_product_id = c.network_product_id
		WHERE c.vertical IS NULL
		  AND p.product_name IS NOT NULL
		LIMIT @count
	`, projectID, dataset, table, projectID, dataset, ClassificationsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "count", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("UnclassifiedProducts: query read: %w", err)
	}

	var listings []*ProductListing
	for {
		var row ProductListing
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("UnclassifiedProducts: iter next: %w", err)
		}
		listings = append(listings, &row)
	}

	return listings, nil
}

func runQueryJob(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
