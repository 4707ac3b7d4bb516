package pipeline

import (
	"time"

	"github.com/moxiedata/affiliate-ledger/internal/feed"
	"github.com/moxiedata/affiliate-ledger/internal/ledger"
)

// State holds the shared state across all pipeline steps for one
// extraction run. It is owned by exactly one run and mutated in place as
// steps execute.
type State struct {
	RunID      string
	Country    string
	ReportDate time.Time

	// Retailers is the run-scoped retailer map, seeded from the override
	// sheet by the init step and grown by the resolver during formatting.
	Retailers ledger.RetailerMap

	// Raw is the unmodified extract body, archived before transformation.
	Raw []byte

	// Snapshot is the decoded current-state records from the feed.
	Snapshot []feed.Transaction

	// Reconciled carries the ledger-ready records and the delete
	// instructions applied against the warehouse.
	Reconciled ledger.ReconcileResult

	// Report is the formatted output grouped by report type.
	Report *ledger.Report

	// LoadURIs maps each report type to its uploaded load file, and
	// Counts to the number of rows it carries.
	LoadURIs map[string]string
	Counts   map[string]int
}
