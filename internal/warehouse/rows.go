// Package warehouse owns the canonical BigQuery schema of the affiliate
// ledger and the operations against it: the persisted-ID lookup, the
// delete-and-reissue primitives, GCS-reference load jobs and table
// bootstrap.
package warehouse

import (
	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Report types routed to distinct tables.
const (
	ReportTransactions = "transactions"
	ReportProducts     = "products"
)

// ClassificationsTable receives product vertical tags from the classifier.
const ClassificationsTable = "product_classifications"

// TransactionRow is one canonical transaction-level ledger row. Nullable
// columns are pointers so the NDJSON load files carry explicit nulls, and
// the full column list is visible here instead of hiding behind a
// field-by-key map.
type TransactionRow struct {
	TransactionID    string          `json:"transaction_id"`
	SaleAmount       decimal.Decimal `json:"sale_amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	Currency         string          `json:"currency"`
	ProductCount     *int64          `json:"product_count"`

	Retailer         string `json:"retailer"`
	RawRetailer      string `json:"raw_retailer"`
	AffiliateNetwork string `json:"affiliate_network"`

	ReportDate  civil.Date `json:"report_date"`
	ReportYear  int        `json:"report_year"`
	ReportMonth int        `json:"report_month"`
	ReportDay   int        `json:"report_day"`

	PurchaseDate  *civil.Date `json:"purchase_date"`
	PurchaseYear  *int        `json:"purchase_year"`
	PurchaseMonth *int        `json:"purchase_month"`
	PurchaseDay   *int        `json:"purchase_day"`

	ClickDate  *civil.Date `json:"click_date"`
	ClickYear  *int        `json:"click_year"`
	ClickMonth *int        `json:"click_month"`
	ClickDay   *int        `json:"click_day"`

	ClickID          *string `json:"click_id"`
	ReferringURL     *string `json:"referring_url"`
	ReferringDomain  *string `json:"referring_domain"`
	ReferringArticle *string `json:"referring_article"`
}

// ProductRow is one canonical product-level ledger row. The retailer,
// date, network and referral columns are inherited from the parent
// transaction's formatted row. Brand and the extra category levels stay
// null at extraction time; the classifier fills them downstream.
type ProductRow struct {
	TransactionID    string          `json:"transaction_id"`
	ProductName      string          `json:"product_name"`
	ProductID        string          `json:"product_id"`
	NetworkProductID string          `json:"network_product_id"`
	Price            decimal.Decimal `json:"price"`
	Category         string          `json:"category"`
	Quantity         int64           `json:"quantity"`
	Brand            *string         `json:"brand"`

	Retailer         string `json:"retailer"`
	RawRetailer      string `json:"raw_retailer"`
	AffiliateNetwork string `json:"affiliate_network"`

	ReportDate  civil.Date `json:"report_date"`
	ReportYear  int        `json:"report_year"`
	ReportMonth int        `json:"report_month"`
	ReportDay   int        `json:"report_day"`

	PurchaseDate  *civil.Date `json:"purchase_date"`
	PurchaseYear  *int        `json:"purchase_year"`
	PurchaseMonth *int        `json:"purchase_month"`
	PurchaseDay   *int        `json:"purchase_day"`

	ClickDate  *civil.Date `json:"click_date"`
	ClickYear  *int        `json:"click_year"`
	ClickMonth *int        `json:"click_month"`
	ClickDay   *int        `json:"click_day"`

	ClickID          *string `json:"click_id"`
	ReferringURL     *string `json:"referring_url"`
	ReferringDomain  *string `json:"referring_domain"`
	ReferringArticle *string `json:"referring_article"`

	IRCampaign *string `json:"ir_campaign"`
	Category2  *string `json:"category_2"`
	Category3  *string `json:"category_3"`
	Category4  *string `json:"category_4"`
	Category5  *string `json:"category_5"`
}

// ClassificationRow is one product vertical tag produced by the classifier.
type ClassificationRow struct {
	NetworkProductID string     `json:"network_product_id"`
	ProductID        string     `json:"product_id"`
	Vertical         string     `json:"vertical"`
	Model            string     `json:"model"`
	ReportDate       civil.Date `json:"report_date"`
}

// ProductListing is the slice of a product row the classifier needs.
type ProductListing struct {
	NetworkProductID string `bigquery:"network_product_id"`
	ProductID        string `bigquery:"product_id"`
	ProductName      string `bigquery:"product_name"`
	Category         string `bigquery:"category"`
}

// TransactionsSchema is the explicit BigQuery schema for transaction
// tables. The row structs above use decimal amounts the bigquery package
// cannot infer, so the schema is written out rather than inferred.
func TransactionsSchema() bigquery.Schema {
	return bigquery.Schema{
		{Name: "transaction_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "sale_amount", Type: bigquery.NumericFieldType, Required: true},
		{Name: "commission_amount", Type: bigquery.NumericFieldType, Required: true},
		{Name: "currency", Type: bigquery.StringFieldType},
		{Name: "product_count", Type: bigquery.IntegerFieldType},
		{Name: "retailer", Type: bigquery.StringFieldType, Required: true},
		{Name: "raw_retailer", Type: bigquery.StringFieldType},
		{Name: "affiliate_network", Type: bigquery.StringFieldType, Required: true},
		{Name: "report_date", Type: bigquery.DateFieldType, Required: true},
		{Name: "report_year", Type: bigquery.IntegerFieldType},
		{Name: "report_month", Type: bigquery.IntegerFieldType},
		{Name: "report_day", Type: bigquery.IntegerFieldType},
		{Name: "purchase_date", Type: bigquery.DateFieldType},
		{Name: "purchase_year", Type: bigquery.IntegerFieldType},
		{Name: "purchase_month", Type: bigquery.IntegerFieldType},
		{Name: "purchase_day", Type: bigquery.IntegerFieldType},
		{Name: "click_date", Type: bigquery.DateFieldType},
		{Name: "click_year", Type: bigquery.IntegerFieldType},
		{Name: "click_month", Type: bigquery.IntegerFieldType},
		{Name: "click_day", Type: bigquery.IntegerFieldType},
		{Name: "click_id", Type: bigquery.StringFieldType},
		{Name: "referring_url", Type: bigquery.StringFieldType},
		{Name: "referring_domain", Type: bigquery.StringFieldType},
		{Name: "referring_article", Type: bigquery.StringFieldType},
	}
}

// ProductsSchema is the explicit BigQuery schema for product tables.
func ProductsSchema() bigquery.Schema {
	return bigquery.Schema{
		{Name: "transaction_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "product_name", Type: bigquery.StringFieldType},
		{Name: "product_id", Type: bigquery.StringFieldType},
		{Name: "network_product_id", Type: bigquery.StringFieldType},
		{Name: "price", Type: bigquery.NumericFieldType},
		{Name: "category", Type: bigquery.StringFieldType},
		{Name: "quantity", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "brand", Type: bigquery.StringFieldType},
		{Name: "retailer", Type: bigquery.StringFieldType, Required: true},
		{Name: "raw_retailer", Type: bigquery.StringFieldType},
		{Name: "affiliate_network", Type: bigquery.StringFieldType, Required: true},
		{Name: "report_date", Type: bigquery.DateFieldType, Required: true},
		{Name: "report_year", Type: bigquery.IntegerFieldType},
		{Name: "report_month", Type: bigquery.IntegerFieldType},
		{Name: "report_day", Type: bigquery.IntegerFieldType},
		{Name: "purchase_date", Type: bigquery.DateFieldType},
		{Name: "purchase_year", Type: bigquery.IntegerFieldType},
		{Name: "purchase_month", Type: bigquery.IntegerFieldType},
		{Name: "purchase_day", Type: bigquery.IntegerFieldType},
		{Name: "click_date", Type: bigquery.DateFieldType},
		{Name: "click_year", Type: bigquery.IntegerFieldType},
		{Name: "click_month", Type: bigquery.IntegerFieldType},
		{Name: "click_day", Type: bigquery.IntegerFieldType},
		{Name: "click_id", Type: bigquery.StringFieldType},
		{Name: "referring_url", Type: bigquery.StringFieldType},
		{Name: "referring_domain", Type: bigquery.StringFieldType},
		{Name: "referring_article", Type: bigquery.StringFieldType},
		{Name: "ir_campaign", Type: bigquery.StringFieldType},
		{Name: "category_2", Type: bigquery.StringFieldType},
		{Name: "category_3", Type: bigquery.StringFieldType},
		{Name: "category_4", Type: bigquery.StringFieldType},
		{Name: "category_5", Type: bigquery.StringFieldType},
	}
}

// ClassificationsSchema is the explicit schema for the classification table.
func ClassificationsSchema() bigquery.Schema {
	return bigquery.Schema{
		{Name: "network_product_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "product_id", Type: bigquery.StringFieldType},
		{Name: "vertical", Type: bigquery.StringFieldType, Required: true},
		{Name: "model", Type: bigquery.StringFieldType},
		{Name: "report_date", Type: bigquery.DateFieldType, Required: true},
	}
}
