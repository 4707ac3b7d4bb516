// Package feed talks to the affiliate network's publisher API. The network
// only exposes the current state of each transaction, so callers downstream
// are responsible for reconstructing history from these snapshots.
package feed

import (
	"github.com/shopspring/decimal"
)

// Commission statuses reported by the network.
const (
	StatusApproved = "approved"
	StatusDeclined = "declined"
	StatusPending  = "pending"
)

// Money is an (amount, currency) pair as returned by the feed.
// Amounts are exact decimals; the signed-correction arithmetic downstream
// depends on old + (new - old) == new holding without float drift.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// BasketProduct is one product line item nested under a transaction.
type BasketProduct struct {
	ProductID   string          `json:"productId"`
	SKUCode     string          `json:"skuCode"`
	ProductName string          `json:"productName"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int64           `json:"quantity"`
}

// ClickRefs carries the optional click identifiers attached to a transaction.
type ClickRefs struct {
	ClickRef string `json:"clickRef"`
}

// Transaction is one current-state transaction record from the snapshot feed.
// Old* amounts are only present when the network amended the transaction.
type Transaction struct {
	ID                  int64           `json:"id"`
	CommissionStatus    string          `json:"commissionStatus"`
	Amended             bool            `json:"amended"`
	SaleAmount          Money           `json:"saleAmount"`
	CommissionAmount    Money           `json:"commissionAmount"`
	OldSaleAmount       *Money          `json:"oldSaleAmount"`
	OldCommissionAmount *Money          `json:"oldCommissionAmount"`
	AdvertiserID        int64           `json:"advertiserId"`
	ClickDate           string          `json:"clickDate"`
	TransactionDate     string          `json:"transactionDate"`
	ValidationDate      string          `json:"validationDate"`
	PublisherURL        string          `json:"publisherUrl"`
	ClickRefs           *ClickRefs      `json:"clickRefs"`
	BasketProducts      []BasketProduct `json:"basketProducts"`
}

// Clone returns an independent deep copy of the transaction. Synthetic
// correction records are always built from a clone so mutating one record
// never aliases another.
func (t Transaction) Clone() Transaction {
	out := t
	if t.OldSaleAmount != nil {
		old := *t.OldSaleAmount
		out.OldSaleAmount = &old
	}
	if t.OldCommissionAmount != nil {
		old := *t.OldCommissionAmount
		out.OldCommissionAmount = &old
	}
	if t.ClickRefs != nil {
		refs := *t.ClickRefs
		out.ClickRefs = &refs
	}
	if t.BasketProducts != nil {
		out.BasketProducts = make([]BasketProduct, len(t.BasketProducts))
		copy(out.BasketProducts, t.BasketProducts)
	}
	return out
}

// ProgrammeInfo describes the advertiser programme behind a transaction.
type ProgrammeInfo struct {
	Name string `json:"name"`
}

// ProgrammeDetails is the advertiser-info API response body.
type ProgrammeDetails struct {
	ProgrammeInfo *ProgrammeInfo `json:"programmeInfo"`
}
