package classifier

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/moxiedata/affiliate-ledger/internal/objectstore"
	"github.com/moxiedata/affiliate-ledger/internal/warehouse"
)

// ProductSource selects product rows that still lack a vertical tag.
type ProductSource interface {
	UnclassifiedProducts(ctx context.Context, country string, limit int) ([]*warehouse.ProductListing, error)
	LoadClassifications(ctx context.Context, gcsURI string) error
}

// ObjectStore uploads the classification load file.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) error
	URI(objectName string) string
}

// Notifier reports the run outcome.
type Notifier interface {
	Warning(ctx context.Context, message string) error
	Tagged(ctx context.Context, count int) error
}

// Job wires one classification run: select untagged products, tag them
// with the model, and load the tags through the same upload-and-load path
// the extraction pipeline uses.
type Job struct {
	Source  ProductSource
	Tagger  Tagger
	Store   ObjectStore
	Notify  Notifier
	Network string
	Model   string
	Log     zerolog.Logger
}

// Run classifies up to limit untagged products for one country and
// returns how many tags were loaded. Finding nothing to classify is not
// an error; the job posts a warning and exits early.
func (j *Job) Run(ctx context.Context, country string, limit int) (int, error) {
	j.Log.Info().Str("country", country).Int("limit", limit).Msg("selecting unclassified products")

	products, err := j.Source.UnclassifiedProducts(ctx, country, limit)
	if err != nil {
		return 0, fmt.Errorf("classifier: selecting products: %w", err)
	}

	if len(products) == 0 {
		j.Log.Info().Msg("no unclassified products found")
		if err := j.Notify.Warning(ctx, fmt.Sprintf("No unclassified %s products found", j.Network)); err != nil {
			return 0, err
		}
		return 0, nil
	}

	j.Log.Info().Int("count", len(products)).Msg("tagging products")
	tags, err := j.Tagger.TagProducts(ctx, products)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	rows := make([]*warehouse.ClassificationRow, 0, len(tags))
	byID := map[string]*warehouse.ProductListing{}
	for _, p := range products {
		byID[p.NetworkProductID] = p
	}
	for _, tag := range tags {
		listing, ok := byID[tag.NetworkProductID]
		if !ok {
			return 0, fmt.Errorf("classifier: model tagged unknown product %q", tag.NetworkProductID)
		}
		rows = append(rows, &warehouse.ClassificationRow{
			NetworkProductID: tag.NetworkProductID,
			ProductID:        listing.ProductID,
			Vertical:         tag.Vertical,
			Model:            j.Model,
			ReportDate:       civil.DateOf(now),
		})
	}

	data, err := objectstore.EncodeGzipNDJSON(rows)
	if err != nil {
		return 0, err
	}

	key := objectstore.ClassificationKey(j.Network, now)
	j.Log.Info().Str("object", key).Msg("uploading classification load file")
	if err := j.Store.Upload(ctx, key, data, "application/json"); err != nil {
		return 0, err
	}

	j.Log.Info().Msg("submitting load job")
	if err := j.Source.LoadClassifications(ctx, j.Store.URI(key)); err != nil {
		return 0, err
	}

	if err := j.Notify.Tagged(ctx, len(rows)); err != nil {
		return 0, err
	}

	return len(rows), nil
}
