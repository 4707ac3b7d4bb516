package pipeline

import (
	"context"
	"time"

	"github.com/moxiedata/affiliate-ledger/internal/feed"
	"github.com/moxiedata/affiliate-ledger/internal/ledger"
)

// FeedClient is the upstream snapshot API surface the pipeline needs: the
// daily transaction extract and the advertiser programme lookup the
// retailer resolver falls back to.
type FeedClient interface {
	Transactions(ctx context.Context, day time.Time) ([]feed.Transaction, []byte, error)
	ProgrammeDetails(ctx context.Context, advertiserID string) (*feed.ProgrammeDetails, error)
}

// Warehouse is the ledger store: persisted-ID lookup, the
// delete-and-reissue primitives, and GCS-reference load jobs.
type Warehouse interface {
	ExistingTransactionIDs(ctx context.Context, network, country string) (map[string]struct{}, error)
	DeleteTransactionRecord(ctx context.Context, network, country, transactionID string) error
	DeleteProductRecord(ctx context.Context, network, country, transactionID, productID string) error
	LoadReport(ctx context.Context, country, reportType, gcsURI string) error
}

// ObjectStore receives the raw snapshot archive and the load files.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) error
	URI(objectName string) string
}

// Notifier reports run outcomes to the operator.
type Notifier interface {
	ReportLoaded(ctx context.Context, country, reportType string, count int) error
	RunFailed(ctx context.Context, country string, runErr error) error
}

// OverridesLoader supplies the closed-retailer override map, read once per
// run.
type OverridesLoader interface {
	Load(ctx context.Context) (ledger.RetailerMap, error)
}
