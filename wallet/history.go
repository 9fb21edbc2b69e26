package wallet

import (
	"sort"

	"github.com/cashewlabs/cashew/cashu/nuts/nut04"
	"github.com/cashewlabs/cashew/wallet/storage"
)

// ReconcileHistory merges invoice records with recorded spend
// transactions into one ledger view, most recent first. Invoices that
// already have a transaction record (same quote id) are dropped in
// favor of the record, which carries the later state. Invoices without
// a bolt11 were never fully created and are excluded. Pure merge and
// sort, no I/O.
func ReconcileHistory(invoices []storage.Invoice, transactions []storage.Transaction,
	mintURL, unit string) []storage.Transaction {

	history := make([]storage.Transaction, 0)
	recorded := make(map[string]bool)

	for _, tx := range transactions {
		if mintURL != "" && tx.Mint != mintURL {
			continue
		}
		if unit != "" && tx.Unit != unit {
			continue
		}
		if tx.QuoteId != "" {
			recorded[tx.QuoteId] = true
		}
		history = append(history, tx)
	}

	for _, invoice := range invoices {
		if invoice.Bolt11 == "" {
			continue
		}
		if invoice.State != nut04.Paid && invoice.State != nut04.Issued {
			continue
		}
		if recorded[invoice.QuoteId] {
			continue
		}
		if mintURL != "" && invoice.Mint != mintURL {
			continue
		}
		if unit != "" && invoice.Unit != unit {
			continue
		}
		history = append(history, storage.Transaction{
			Direction: storage.In,
			Amount:    invoice.Amount,
			Unit:      invoice.Unit,
			Mint:      invoice.Mint,
			State:     invoice.State.String(),
			Timestamp: invoice.CreatedAt,
			QuoteId:   invoice.QuoteId,
		})
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp > history[j].Timestamp
	})

	return history
}
