package ledger

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/moxiedata/affiliate-ledger/internal/feed"
	"github.com/moxiedata/affiliate-ledger/internal/warehouse"
)

// Report groups the formatted ledger rows by destination table.
type Report struct {
	Transactions []*warehouse.TransactionRow
	Products     []*warehouse.ProductRow
}

// Formatter maps reconciled records into the canonical warehouse schema.
// Retailer identity is mandatory for every row, so a single resolution
// failure aborts the whole batch rather than emitting a partial ledger.
type Formatter struct {
	resolver *Resolver
	network  string
}

// NewFormatter builds a formatter that stamps every row with the given
// affiliate network tag.
func NewFormatter(resolver *Resolver, network string) *Formatter {
	return &Formatter{
		resolver: resolver,
		network:  network,
	}
}

// Format builds transaction rows for every reconciled record and product
// rows for every nested basket product. Product rows inherit their shared
// context columns from the parent's already-formatted row, so they only
// exist for transactions that survived formatting.
func (f *Formatter) Format(ctx context.Context, records []feed.Transaction) (*Report, error) {
	report := &Report{}

	for _, record := range records {
		row, err := f.formatTransaction(ctx, record)
		if err != nil {
			return nil, err
		}
		report.Transactions = append(report.Transactions, row)

		for _, product := range record.BasketProducts {
			report.Products = append(report.Products, formatProduct(product, row))
		}
	}

	return report, nil
}

func (f *Formatter) formatTransaction(ctx context.Context, record feed.Transaction) (*warehouse.TransactionRow, error) {
	advertiserID := strconv.FormatInt(record.AdvertiserID, 10)
	rawRetailer, err := f.resolver.Resolve(ctx, advertiserID)
	if err != nil {
		return nil, fmt.Errorf("formatting transaction %s: %w", TransactionID(record), err)
	}

	reportDate, err := parseFeedDate(record.ValidationDate)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: validation date: %w", TransactionID(record), err)
	}
	if reportDate == nil {
		return nil, fmt.Errorf("transaction %s: validation date is empty", TransactionID(record))
	}

	purchaseDate, err := parseFeedDate(record.TransactionDate)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: transaction date: %w", TransactionID(record), err)
	}
	clickDate, err := parseFeedDate(record.ClickDate)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: click date: %w", TransactionID(record), err)
	}

	row := &warehouse.TransactionRow{
		TransactionID:    TransactionID(record),
		SaleAmount:       record.SaleAmount.Amount,
		CommissionAmount: record.CommissionAmount.Amount,
		Currency:         record.SaleAmount.Currency,
		Retailer:         normalizeRetailer(rawRetailer),
		RawRetailer:      rawRetailer,
		AffiliateNetwork: f.network,
		ReportDate:       *reportDate,
		ReportYear:       reportDate.Year,
		ReportMonth:      int(reportDate.Month),
		ReportDay:        reportDate.Day,
	}

	if len(record.BasketProducts) > 0 {
		count := int64(len(record.BasketProducts))
		row.ProductCount = &count
	}

	if purchaseDate != nil {
		row.PurchaseDate = purchaseDate
		row.PurchaseYear = intPtr(purchaseDate.Year)
		row.PurchaseMonth = intPtr(int(purchaseDate.Month))
		row.PurchaseDay = intPtr(purchaseDate.Day)
	}
	if clickDate != nil {
		row.ClickDate = clickDate
		row.ClickYear = intPtr(clickDate.Year)
		row.ClickMonth = intPtr(int(clickDate.Month))
		row.ClickDay = intPtr(clickDate.Day)
	}

	if record.PublisherURL != "" {
		row.ReferringURL = strPtr(record.PublisherURL)
		if domain := referringDomain(record.PublisherURL); domain != "" {
			row.ReferringDomain = strPtr(domain)
		}
		if article := referringArticle(record.PublisherURL); article != "" {
			row.ReferringArticle = strPtr(article)
		}
	}

	if record.ClickRefs != nil && record.ClickRefs.ClickRef != "" {
		row.ClickID = strPtr(record.ClickRefs.ClickRef)
	}

	return row, nil
}

// formatProduct builds a product row from its line item and the parent's
// formatted transaction row. The unit price keeps its sign even on offset
// rows; only the quantity carries the reversal.
func formatProduct(product feed.BasketProduct, parent *warehouse.TransactionRow) *warehouse.ProductRow {
	return &warehouse.ProductRow{
		TransactionID:    parent.TransactionID,
		ProductName:      normalizeProductDetail(product.ProductName),
		ProductID:        product.SKUCode,
		NetworkProductID: product.ProductID,
		Price:            product.UnitPrice,
		Category:         normalizeProductDetail(product.Category),
		Quantity:         product.Quantity,

		Retailer:         parent.Retailer,
		RawRetailer:      parent.RawRetailer,
		AffiliateNetwork: parent.AffiliateNetwork,

		ReportDate:  parent.ReportDate,
		ReportYear:  parent.ReportYear,
		ReportMonth: parent.ReportMonth,
		ReportDay:   parent.ReportDay,

		PurchaseDate:  parent.PurchaseDate,
		PurchaseYear:  parent.PurchaseYear,
		PurchaseMonth: parent.PurchaseMonth,
		PurchaseDay:   parent.PurchaseDay,

		ClickDate:  parent.ClickDate,
		ClickYear:  parent.ClickYear,
		ClickMonth: parent.ClickMonth,
		ClickDay:   parent.ClickDay,

		ClickID:          parent.ClickID,
		ReferringURL:     parent.ReferringURL,
		ReferringDomain:  parent.ReferringDomain,
		ReferringArticle: parent.ReferringArticle,
	}
}

// feedDateLayouts covers the timestamp shapes the network has been seen to
// emit for click, transaction and validation dates.
var feedDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseFeedDate(raw string) (*civil.Date, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range feedDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			d := civil.DateOf(ts)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", raw)
}

func normalizeRetailer(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func normalizeProductDetail(raw string) string {
	return strings.TrimSpace(raw)
}

// referringDomain extracts the host of the publisher URL.
func referringDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// referringArticle strips query and fragment, keeping the canonical page.
func referringArticle(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
