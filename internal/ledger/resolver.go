// Package ledger turns current-state snapshot records into append-only
// ledger rows: it decides which persisted rows must be superseded,
// synthesizes signed correction records, and shapes the result into the
// canonical warehouse schema.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/moxiedata/affiliate-ledger/internal/feed"
)

// RetailerMap maps an advertiser ID to a retailer name. It is seeded from
// the closed-retailer override sheet and grown in place as unknown
// advertisers are resolved during a run. It lives for one run only.
type RetailerMap map[string]string

// ProgrammeSource is the remote advertiser-info lookup the resolver falls
// back to on a map miss.
type ProgrammeSource interface {
	ProgrammeDetails(ctx context.Context, advertiserID string) (*feed.ProgrammeDetails, error)
}

// ResolutionError reports a programme-details response that arrived fine at
// the transport level but carried no programme name. Closed advertiser
// accounts do this; they belong in the override sheet instead.
type ResolutionError struct {
	AdvertiserID string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("ledger: no retailer info for advertiser ID %s", e.AdvertiserID)
}

// Resolver maps advertiser IDs to retailer names. It owns its RetailerMap
// outright: override entries are returned as stored, misses trigger at most
// one remote lookup per advertiser ID per run.
type Resolver struct {
	retailers RetailerMap
	source    ProgrammeSource
}

// NewResolver builds a resolver over the given override map. The map is
// mutated in place as lookups succeed; a nil map is treated as empty.
func NewResolver(overrides RetailerMap, source ProgrammeSource) *Resolver {
	if overrides == nil {
		overrides = RetailerMap{}
	}
	return &Resolver{
		retailers: overrides,
		source:    source,
	}
}

// Resolve returns the retailer name for an advertiser ID. Map hits are
// returned with their stored casing; remote results are lowercased before
// being memoized so repeat lookups within the run stay local.
func (r *Resolver) Resolve(ctx context.Context, advertiserID string) (string, error) {
	if name, ok := r.retailers[advertiserID]; ok {
		return name, nil
	}

	details, err := r.source.ProgrammeDetails(ctx, advertiserID)
	if err != nil {
		return "", err
	}

	if details.ProgrammeInfo == nil || details.ProgrammeInfo.Name == "" {
		return "", &ResolutionError{AdvertiserID: advertiserID}
	}

	name := strings.ToLower(details.ProgrammeInfo.Name)
	r.retailers[advertiserID] = name
	return name, nil
}
