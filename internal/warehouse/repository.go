package warehouse

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// tableMap routes a (country, report type) pair to its destination table.
// The ledger is split per market so each warehouse consumer only scans its
// own country's rows.
var tableMap = map[string]string{
	"US_" + ReportTransactions: "us_transactions",
	"UK_" + ReportTransactions: "uk_transactions",
	"US_" + ReportProducts:     "us_products",
	"UK_" + ReportProducts:     "uk_products",
}

// TableFor returns the destination table for a country and report type.
func TableFor(country, reportType string) (string, error) {
	table, ok := tableMap[country+"_"+reportType]
	if !ok {
		return "", fmt.Errorf("warehouse: no table for country %q report type %q", country, reportType)
	}
	return table, nil
}

// Repository is the concrete BigQuery-backed store for ledger rows. It
// holds a shared client so one run does not open a connection per
// operation.
type Repository struct {
	client    *bigquery.Client
	projectID string
	dataset   string
}

// NewRepository creates a repository with a shared BigQuery client.
func NewRepository(ctx context.Context, projectID, dataset string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{
		client:    client,
		projectID: projectID,
		dataset:   dataset,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ExistingTransactionIDs delegates to ExistingTransactionIDsWithClient with
// the shared client.
func (r *Repository) ExistingTransactionIDs(ctx context.Context, network, country string) (map[string]struct{}, error) {
	return ExistingTransactionIDsWithClient(ctx, r.client, r.projectID, r.dataset, network, country)
}

// DeleteTransactionRecord delegates to DeleteTransactionRecordWithClient
// with the shared client.
func (r *Repository) DeleteTransactionRecord(ctx context.Context, network, country, transactionID string) error {
	return DeleteTransactionRecordWithClient(ctx, r.client, r.projectID, r.dataset, network, country, transactionID)
}

// DeleteProductRecord delegates to DeleteProductRecordWithClient with the
// shared client.
func (r *Repository) DeleteProductRecord(ctx context.Context, network, country, transactionID, productID string) error {
	return DeleteProductRecordWithClient(ctx, r.client, r.projectID, r.dataset, network, country, transactionID, productID)
}

// LoadReport delegates to LoadReportWithClient with the shared client.
func (r *Repository) LoadReport(ctx context.Context, country, reportType, gcsURI string) error {
	table, err := TableFor(country, reportType)
	if err != nil {
		return err
	}
	return LoadReportWithClient(ctx, r.client, r.projectID, r.dataset, table, gcsURI)
}

// LoadClassifications delegates to LoadReportWithClient against the
// classification table.
func (r *Repository) LoadClassifications(ctx context.Context, gcsURI string) error {
	return LoadReportWithClient(ctx, r.client, r.projectID, r.dataset, ClassificationsTable, gcsURI)
}

// UnclassifiedProducts delegates to UnclassifiedProductsWithClient with the
// shared client.
func (r *Repository) UnclassifiedProducts(ctx context.Context, country string, limit int) ([]*ProductListing, error) {
	return UnclassifiedProductsWithClient(ctx, r.client, r.projectID, r.dataset, country, limit)
}
