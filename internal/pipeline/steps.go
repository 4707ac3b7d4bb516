package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/moxiedata/affiliate-ledger/internal/ledger"
	"github.com/moxiedata/affiliate-ledger/internal/logger"
	"github.com/moxiedata/affiliate-ledger/internal/objectstore"
	"github.com/moxiedata/affiliate-ledger/internal/warehouse"
)

// reportTypes lists the output collections in notification order:
// transactions before products.
var reportTypes = []string{warehouse.ReportTransactions, warehouse.ReportProducts}

// InitStep loads the closed-retailer override map for the run. A nil
// loader means no overrides are configured and the run starts from an
// empty map.
type InitStep struct {
	Overrides OverridesLoader
}

func (s *InitStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	if s.Overrides == nil {
		state.Retailers = ledger.RetailerMap{}
		log.Info().Msg("no override source configured, starting with an empty retailer map")
		return nil
	}

	retailers, err := s.Overrides.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading retailer overrides: %w", err)
	}
	state.Retailers = retailers

	log.Info().Int("overrides", len(retailers)).Msg("loaded closed-retailer overrides")
	return nil
}

// ExtractStep pulls the day's snapshot from the feed.
type ExtractStep struct {
	Feed FeedClient
}

func (s *ExtractStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)
	log.Info().Str("report_date", state.ReportDate.Format("2006-01-02")).Msg("extracting snapshot")

	records, raw, err := s.Feed.Transactions(ctx, state.ReportDate)
	if err != nil {
		return fmt.Errorf("extracting snapshot: %w", err)
	}

	state.Snapshot = records
	state.Raw = raw

	log.Info().Int("records", len(records)).Msg("snapshot extracted")
	return nil
}

// ArchiveRawStep uploads the unmodified extract body before any
// transformation touches it.
type ArchiveRawStep struct {
	Store   ObjectStore
	Network string
	Now     func() time.Time
}

func (s *ArchiveRawStep) Execute(ctx context.Context, state *State) error {
	key := objectstore.RawSnapshotKey(s.Network, state.Country, state.ReportDate, s.Now())
	if err := s.Store.Upload(ctx, key, state.Raw, "application/json"); err != nil {
		return fmt.Errorf("archiving raw snapshot: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().Str("object", key).Msg("archived raw snapshot")
	return nil
}

// ReconcileStep runs the snapshot-to-ledger reconciliation and applies
// the resulting delete instructions, so superseded rows are gone before
// their replacements load.
type ReconcileStep struct {
	Warehouse Warehouse
	Network   string
}

func (s *ReconcileStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	persisted, err := s.Warehouse.ExistingTransactionIDs(ctx, s.Network, state.Country)
	if err != nil {
		return fmt.Errorf("looking up persisted transaction IDs: %w", err)
	}

	state.Reconciled = ledger.Reconcile(state.Snapshot, persisted)

	log.Info().
		Int("input_records", len(state.Snapshot)).
		Int("output_records", len(state.Reconciled.Records)).
		Int("deletes", len(state.Reconciled.Deletes)).
		Msg("reconciled snapshot against persisted ledger")

	for _, del := range state.Reconciled.Deletes {
		if del.ProductID == "" {
			err = s.Warehouse.DeleteTransactionRecord(ctx, s.Network, state.Country, del.TransactionID)
		} else {
			err = s.Warehouse.DeleteProductRecord(ctx, s.Network, state.Country, del.TransactionID, del.ProductID)
		}
		if err != nil {
			return fmt.Errorf("applying delete instruction: %w", err)
		}
	}

	return nil
}

// FormatStep maps the reconciled records into canonical warehouse rows,
// resolving retailer identity through the run's retailer map.
type FormatStep struct {
	Feed    FeedClient
	Network string
}

func (s *FormatStep) Execute(ctx context.Context, state *State) error {
	resolver := ledger.NewResolver(state.Retailers, s.Feed)
	formatter := ledger.NewFormatter(resolver, s.Network)

	report, err := formatter.Format(ctx, state.Reconciled.Records)
	if err != nil {
		return fmt.Errorf("formatting ledger rows: %w", err)
	}
	state.Report = report

	log := logger.FromContext(ctx)
	log.Info().
		Int("transactions", len(report.Transactions)).
		Int("products", len(report.Products)).
		Msg("formatted ledger rows")
	return nil
}

// UploadStep serializes each report collection as gzip NDJSON and uploads
// it for the warehouse to ingest by reference.
type UploadStep struct {
	Store   ObjectStore
	Network string
	Now     func() time.Time
}

func (s *UploadStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)
	state.LoadURIs = map[string]string{}
	state.Counts = map[string]int{}

	now := s.Now()
	for _, reportType := range reportTypes {
		var data []byte
		var err error
		var count int

		switch reportType {
		case warehouse.ReportTransactions:
			data, err = objectstore.EncodeGzipNDJSON(state.Report.Transactions)
			count = len(state.Report.Transactions)
		case warehouse.ReportProducts:
			data, err = objectstore.EncodeGzipNDJSON(state.Report.Products)
			count = len(state.Report.Products)
		}
		if err != nil {
			return fmt.Errorf("encoding %s load file: %w", reportType, err)
		}

		key := objectstore.TransformedReportKey(s.Network, state.Country, reportType, state.ReportDate, now)
		if err := s.Store.Upload(ctx, key, data, "application/json"); err != nil {
			return fmt.Errorf("uploading %s load file: %w", reportType, err)
		}

		state.LoadURIs[reportType] = s.Store.URI(key)
		state.Counts[reportType] = count
		log.Info().Str("report_type", reportType).Int("rows", count).Str("object", key).Msg("uploaded load file")
	}

	return nil
}

// LoadStep submits one warehouse load job per uploaded report file.
type LoadStep struct {
	Warehouse Warehouse
}

func (s *LoadStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	for _, reportType := range reportTypes {
		uri, ok := state.LoadURIs[reportType]
		if !ok {
			return fmt.Errorf("no load file uploaded for %s", reportType)
		}
		if err := s.Warehouse.LoadReport(ctx, state.Country, reportType, uri); err != nil {
			return fmt.Errorf("loading %s: %w", reportType, err)
		}
		log.Info().Str("report_type", reportType).Str("uri", uri).Msg("load job finished")
	}

	return nil
}

// NotifyStep posts one success message per report type, transactions
// first.
type NotifyStep struct {
	Notify Notifier
}

func (s *NotifyStep) Execute(ctx context.Context, state *State) error {
	for _, reportType := range reportTypes {
		if err := s.Notify.ReportLoaded(ctx, state.Country, reportType, state.Counts[reportType]); err != nil {
			return fmt.Errorf("notifying %s result: %w", reportType, err)
		}
	}
	return nil
}
