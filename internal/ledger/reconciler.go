package ledger

import (
	"strconv"

	"github.com/moxiedata/affiliate-ledger/internal/feed"
)

// DeleteInstruction tells the warehouse to remove a previously loaded row
// before its replacement is appended. An empty ProductID targets the
// transaction-level row; otherwise the (transaction, product) row.
type DeleteInstruction struct {
	TransactionID string
	ProductID     string
}

// ReconcileResult carries the ledger-ready records plus the deletions the
// warehouse must apply before loading them.
type ReconcileResult struct {
	Records []feed.Transaction
	Deletes []DeleteInstruction
}

// Reconcile classifies each snapshot record and emits the set of ledger
// records that keeps per-transaction sums correct while preserving the
// audit trail:
//
//   - an ID already persisted from a prior run gets delete instructions for
//     its transaction row and every product row, so replays supersede
//     instead of duplicating;
//   - a declined record is emitted unchanged plus a sign-flipped mirror,
//     netting to zero;
//   - an approved, amended record whose sale amount changed is replaced by
//     the originally booked amounts plus an explicit delta record summing
//     to the new amount;
//   - everything else passes through unchanged.
//
// The persisted-ID check and the synthesis rules are additive: a record can
// trigger both. Records are processed independently, in input order.
func Reconcile(records []feed.Transaction, persisted map[string]struct{}) ReconcileResult {
	var result ReconcileResult

	for _, record := range records {
		id := TransactionID(record)
		if _, ok := persisted[id]; ok {
			result.Deletes = append(result.Deletes, DeleteInstruction{TransactionID: id})
			for _, product := range record.BasketProducts {
				result.Deletes = append(result.Deletes, DeleteInstruction{
					TransactionID: id,
					ProductID:     product.ProductID,
				})
			}
		}

		switch {
		case record.CommissionStatus == feed.StatusDeclined:
			result.Records = append(result.Records, record, declineMirror(record))

		case isAmendedWithAmountChange(record):
			result.Records = append(result.Records, originalBooking(record), amendmentDelta(record))

		default:
			result.Records = append(result.Records, record)
		}
	}

	return result
}

// TransactionID renders a record's numeric feed ID as the string key used
// for persisted-ID lookups and warehouse rows.
func TransactionID(record feed.Transaction) string {
	return strconv.FormatInt(record.ID, 10)
}

func isAmendedWithAmountChange(record feed.Transaction) bool {
	return record.CommissionStatus == feed.StatusApproved &&
		record.Amended &&
		record.OldSaleAmount != nil &&
		!record.OldSaleAmount.Amount.Equal(record.SaleAmount.Amount)
}

// declineMirror builds the offset record for a declined transaction: sale
// and commission amounts negated, every product quantity negated.
func declineMirror(record feed.Transaction) feed.Transaction {
	mirror := record.Clone()
	mirror.SaleAmount.Amount = record.SaleAmount.Amount.Neg()
	mirror.CommissionAmount.Amount = record.CommissionAmount.Amount.Neg()
	negateQuantities(mirror.BasketProducts)
	return mirror
}

// originalBooking rebuilds the record as it was first loaded, before the
// amendment: sale and commission set back to their old amounts.
func originalBooking(record feed.Transaction) feed.Transaction {
	full := record.Clone()
	full.SaleAmount.Amount = record.OldSaleAmount.Amount
	full.CommissionAmount.Amount = record.OldCommissionAmount.Amount
	return full
}

// amendmentDelta builds the correcting entry for an amendment. Its amounts
// are new minus old, so originalBooking + amendmentDelta equals the current
// snapshot exactly; product quantities are negated to mark the reversal.
func amendmentDelta(record feed.Transaction) feed.Transaction {
	delta := record.Clone()
	delta.SaleAmount.Amount = record.SaleAmount.Amount.Sub(record.OldSaleAmount.Amount)
	delta.CommissionAmount.Amount = record.CommissionAmount.Amount.Sub(record.OldCommissionAmount.Amount)
	negateQuantities(delta.BasketProducts)
	return delta
}

// negateQuantities flips the sign of every product quantity in place. Unit
// prices are left untouched; the sign of a product row is carried by its
// quantity alone.
func negateQuantities(products []feed.BasketProduct) {
	for i := range products {
		products[i].Quantity = -products[i].Quantity
	}
}
