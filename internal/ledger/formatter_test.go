package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/moxiedata/affiliate-ledger/internal/feed"
)

func formatterRecord() feed.Transaction {
	return feed.Transaction{
		ID:               5005,
		CommissionStatus: feed.StatusApproved,
		SaleAmount:       money("200.50", "GBP"),
		CommissionAmount: money("20.05", "GBP"),
		AdvertiserID:     42,
		ValidationDate:   "2026-03-14T09:30:00",
		TransactionDate:  "2026-03-12T18:05:10",
		ClickDate:        "2026-03-10T08:00:00",
		PublisherURL:     "https://www.example-blog.com/best-running-shoes?utm_source=feed#reviews",
		ClickRefs:        &feed.ClickRefs{ClickRef: "click-abc"},
		BasketProducts: []feed.BasketProduct{
			{ProductID: "NP-1", SKUCode: "SKU-1", ProductName: " Trail Runner ", Category: "Footwear", UnitPrice: decimal.RequireFromString("100.25"), Quantity: 2},
		},
	}
}

func TestFormatTransactionRow(t *testing.T) {
	resolver := NewResolver(RetailerMap{"42": "Acme Stores"}, &mockProgrammeSource{})
	formatter := NewFormatter(resolver, "awin")

	report, err := formatter.Format(context.Background(), []feed.Transaction{formatterRecord()})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	if len(report.Transactions) != 1 {
		t.Fatalf("got %d transaction rows, want 1", len(report.Transactions))
	}
	row := report.Transactions[0]

	if row.TransactionID != "5005" {
		t.Errorf("transaction_id = %q, want 5005", row.TransactionID)
	}
	if row.SaleAmount.String() != "200.5" {
		t.Errorf("sale_amount = %s, want 200.5", row.SaleAmount)
	}
	if row.Currency != "GBP" {
		t.Errorf("currency = %q, want GBP", row.Currency)
	}
	if row.RawRetailer != "Acme Stores" {
		t.Errorf("raw_retailer = %q, want Acme Stores", row.RawRetailer)
	}
	if row.Retailer != "acme stores" {
		t.Errorf("retailer = %q, want acme stores", row.Retailer)
	}
	if row.AffiliateNetwork != "awin" {
		t.Errorf("affiliate_network = %q, want awin", row.AffiliateNetwork)
	}

	if row.ReportDate.String() != "2026-03-14" {
		t.Errorf("report_date = %s, want 2026-03-14", row.ReportDate)
	}
	if row.ReportYear != 2026 || row.ReportMonth != 3 || row.ReportDay != 14 {
		t.Errorf("report date parts = %d-%d-%d, want 2026-3-14", row.ReportYear, row.ReportMonth, row.ReportDay)
	}
	if row.PurchaseDate == nil || row.PurchaseDate.String() != "2026-03-12" {
		t.Errorf("purchase_date = %v, want 2026-03-12", row.PurchaseDate)
	}
	if row.ClickDay == nil || *row.ClickDay != 10 {
		t.Errorf("click_day = %v, want 10", row.ClickDay)
	}

	if row.ReferringDomain == nil || *row.ReferringDomain != "www.example-blog.com" {
		t.Errorf("referring_domain = %v, want www.example-blog.com", row.ReferringDomain)
	}
	if row.ReferringArticle == nil || *row.ReferringArticle != "https://www.example-blog.com/best-running-shoes" {
		t.Errorf("referring_article = %v, want canonical URL without query and fragment", row.ReferringArticle)
	}
	if row.ClickID == nil || *row.ClickID != "click-abc" {
		t.Errorf("click_id = %v, want click-abc", row.ClickID)
	}
	if row.ProductCount == nil || *row.ProductCount != 1 {
		t.Errorf("product_count = %v, want 1", row.ProductCount)
	}
}

func TestFormatProductInheritsParentContext(t *testing.T) {
	resolver := NewResolver(RetailerMap{"42": "Acme Stores"}, &mockProgrammeSource{})
	formatter := NewFormatter(resolver, "awin")

	report, err := formatter.Format(context.Background(), []feed.Transaction{formatterRecord()})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	if len(report.Products) != 1 {
		t.Fatalf("got %d product rows, want 1", len(report.Products))
	}
	product := report.Products[0]
	parent := report.Transactions[0]

	if product.TransactionID != parent.TransactionID {
		t.Errorf("product transaction_id = %q, want %q", product.TransactionID, parent.TransactionID)
	}
	if product.Retailer != parent.Retailer || product.AffiliateNetwork != parent.AffiliateNetwork {
		t.Error("product did not inherit retailer/network from the formatted parent row")
	}
	if product.ReportDate != parent.ReportDate {
		t.Errorf("product report_date = %s, want %s", product.ReportDate, parent.ReportDate)
	}
	if product.ClickID == nil || *product.ClickID != "click-abc" {
		t.Errorf("product click_id = %v, want click-abc", product.ClickID)
	}

	if product.ProductName != "Trail Runner" {
		t.Errorf("product_name = %q, want trimmed %q", product.ProductName, "Trail Runner")
	}
	if product.ProductID != "SKU-1" {
		t.Errorf("product_id = %q, want the SKU code", product.ProductID)
	}
	if product.NetworkProductID != "NP-1" {
		t.Errorf("network_product_id = %q, want NP-1", product.NetworkProductID)
	}
	if product.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", product.Quantity)
	}
	if product.Brand != nil {
		t.Errorf("brand = %v, want null until the classifier fills it", *product.Brand)
	}
}

func TestFormatResolutionFailureAbortsBatch(t *testing.T) {
	source := &mockProgrammeSource{
		ProgrammeDetailsFunc: func(ctx context.Context, advertiserID string) (*feed.ProgrammeDetails, error) {
			return &feed.ProgrammeDetails{}, nil
		},
	}
	formatter := NewFormatter(NewResolver(nil, source), "awin")

	good := formatterRecord()
	_, err := formatter.Format(context.Background(), []feed.Transaction{good})
	if err == nil {
		t.Fatal("expected the batch to fail when retailer resolution fails")
	}
}

func TestFormatMissingOptionalDatesStayNull(t *testing.T) {
	record := formatterRecord()
	record.ClickDate = ""
	record.PublisherURL = ""
	record.ClickRefs = nil
	record.BasketProducts = nil

	resolver := NewResolver(RetailerMap{"42": "acme"}, &mockProgrammeSource{})
	formatter := NewFormatter(resolver, "awin")

	report, err := formatter.Format(context.Background(), []feed.Transaction{record})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	row := report.Transactions[0]

	if row.ClickDate != nil || row.ClickYear != nil {
		t.Error("click date fields set for a record without a click date")
	}
	if row.ReferringURL != nil || row.ReferringDomain != nil || row.ReferringArticle != nil {
		t.Error("referral fields set for a record without a publisher URL")
	}
	if row.ClickID != nil {
		t.Error("click_id set for a record without clickRefs")
	}
	if row.ProductCount != nil {
		t.Error("product_count set for a record without basket products")
	}
	if len(report.Products) != 0 {
		t.Errorf("got %d product rows for an empty basket, want 0", len(report.Products))
	}
}

// End-to-end check over reconcile + format: one declined transaction with an
// override-mapped advertiser produces two zero-summing transaction rows and
// two sign-mirrored product rows without any remote lookup.
func TestDeclinedRecordEndToEnd(t *testing.T) {
	record := feed.Transaction{
		ID:               1,
		CommissionStatus: feed.StatusDeclined,
		SaleAmount:       money("100", "USD"),
		CommissionAmount: money("10", "USD"),
		AdvertiserID:     42,
		ValidationDate:   "2026-03-14T00:00:00",
		BasketProducts: []feed.BasketProduct{
			{ProductID: "P1", Quantity: 2, UnitPrice: decimal.RequireFromString("50")},
		},
	}

	result := Reconcile([]feed.Transaction{record}, map[string]struct{}{})
	if len(result.Deletes) != 0 {
		t.Fatalf("got %d delete instructions, want 0", len(result.Deletes))
	}

	source := &mockProgrammeSource{}
	formatter := NewFormatter(NewResolver(RetailerMap{"42": "acme"}, source), "awin")

	report, err := formatter.Format(context.Background(), result.Records)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	if source.calls != 0 {
		t.Errorf("remote lookup called %d times, want 0 (override hit)", source.calls)
	}

	if len(report.Transactions) != 2 {
		t.Fatalf("got %d transaction rows, want 2", len(report.Transactions))
	}
	gotSales := []string{report.Transactions[0].SaleAmount.String(), report.Transactions[1].SaleAmount.String()}
	if gotSales[0] != "100" || gotSales[1] != "-100" {
		t.Errorf("sale amounts = %v, want [100 -100]", gotSales)
	}
	for _, row := range report.Transactions {
		if row.Retailer != "acme" {
			t.Errorf("retailer = %q, want acme", row.Retailer)
		}
	}

	if len(report.Products) != 2 {
		t.Fatalf("got %d product rows, want 2", len(report.Products))
	}
	if report.Products[0].Quantity != 2 || report.Products[1].Quantity != -2 {
		t.Errorf("product quantities = [%d %d], want [2 -2]",
			report.Products[0].Quantity, report.Products[1].Quantity)
	}
}
