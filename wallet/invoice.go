package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/cashewlabs/cashew/cashu/nuts/nut04"
	"github.com/cashewlabs/cashew/wallet/storage"
	decodepay "github.com/nbd-wtf/ln-decodepay"
)

// RequestMint asks the mint for a bolt11 quote for amount and persists
// the invoice in UNPAID state before returning, so an app restart
// cannot lose a pending receive. Empty mintURL/unit target the active
// selection.
func (w *Wallet) RequestMint(ctx context.Context, amount uint64, mintURL, unit string) (*storage.Invoice, error) {
	mintURL, unit, err := w.resolveTarget(mintURL, unit)
	if err != nil {
		return nil, err
	}

	quoteResponse, err := w.client.RequestMintQuote(ctx, mintURL, amount, unit)
	if err != nil {
		return nil, fmt.Errorf("error requesting mint quote: %w", err)
	}

	invoice := storage.Invoice{
		Bolt11:    quoteResponse.Request,
		QuoteId:   quoteResponse.Quote,
		Amount:    amount,
		Mint:      mintURL,
		Unit:      unit,
		State:     nut04.Unpaid,
		CreatedAt: time.Now().Unix(),
		Expiry:    quoteResponse.Expiry,
	}

	// cross-check the invoice the mint handed back
	bolt11, err := decodepay.Decodepay(quoteResponse.Request)
	if err != nil {
		return nil, fmt.Errorf("mint returned invalid invoice: %v", err)
	}
	invoice.PaymentHash = bolt11.PaymentHash
	if unit == "sat" && uint64(bolt11.MSatoshi)/1000 != amount {
		return nil, fmt.Errorf("mint returned invoice for %v msats, requested %v sats",
			bolt11.MSatoshi, amount)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.saveInvoiceLocked(invoice); err != nil {
		return nil, err
	}

	w.logger.Debug().Str("quote", invoice.QuoteId).Uint64("amount", amount).Msg("created mint quote")
	return &invoice, nil
}

// CheckQuote polls the mint for the quote's state and advances the
// local invoice. Transitions are monotonic, UNPAID -> PAID -> ISSUED;
// a mint report behind the local state is a no-op. When the mint
// reports PAID (or ISSUED, the crashed-between-mint-and-record case)
// the wallet immediately attempts issuance: on success the minted
// proofs land in the store and the invoice becomes ISSUED, on failure
// the invoice stays PAID and issuance is retried on the next call.
func (w *Wallet) CheckQuote(ctx context.Context, quoteId string) (*storage.Invoice, error) {
	invoice, err := w.GetInvoice(quoteId)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrQuoteNotFound
	}

	// terminal state, nothing to do
	if invoice.State == nut04.Issued {
		return invoice, nil
	}

	quoteResponse, err := w.client.MintQuoteState(ctx, invoice.Mint, quoteId)
	if err != nil {
		return nil, fmt.Errorf("error checking quote state: %w", err)
	}

	if quoteResponse.State == nut04.Unpaid || quoteResponse.State == nut04.Unknown {
		return invoice, nil
	}

	// mint reports PAID or ISSUED
	if invoice.State == nut04.Unpaid {
		invoice.State = nut04.Paid
		w.mu.Lock()
		err := w.saveInvoiceLocked(*invoice)
		if err == nil {
			err = w.upsertQuoteTransactionLocked(*invoice)
		}
		w.mu.Unlock()
		if err != nil {
			return nil, err
		}
		w.logger.Debug().Str("quote", quoteId).Msg("quote paid")
	}

	proofs, err := w.client.MintProofs(ctx, invoice.Mint, quoteId, invoice.Amount)
	if err != nil {
		// PAID is the recovery checkpoint, retried on the next call
		return invoice, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}
	proofs = tagProofs(proofs, invoice.Mint, invoice.Unit)

	invoice.State = nut04.Issued
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.addProofsLocked(proofs); err != nil {
		return nil, err
	}
	if err := w.saveInvoiceLocked(*invoice); err != nil {
		return nil, err
	}
	if err := w.upsertQuoteTransactionLocked(*invoice); err != nil {
		return nil, err
	}

	w.logger.Debug().Str("quote", quoteId).Uint64("amount", proofs.Amount()).Msg("ecash issued")
	return invoice, nil
}

func (w *Wallet) GetInvoice(quoteId string) (*storage.Invoice, error) {
	invoices, err := storage.GetInvoices(w.db)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		if invoices[i].QuoteId == quoteId {
			return &invoices[i], nil
		}
	}
	return nil, nil
}

func (w *Wallet) Invoices() ([]storage.Invoice, error) {
	return storage.GetInvoices(w.db)
}

// saveInvoiceLocked upserts by quote id. Callers hold w.mu.
func (w *Wallet) saveInvoiceLocked(invoice storage.Invoice) error {
	invoices, err := storage.GetInvoices(w.db)
	if err != nil {
		return err
	}

	found := false
	for i := range invoices {
		if invoices[i].QuoteId == invoice.QuoteId {
			// never regress a state already recorded
			if invoice.State < invoices[i].State {
				return nil
			}
			invoices[i] = invoice
			found = true
			break
		}
	}
	if !found {
		invoices = append(invoices, invoice)
	}

	return storage.PutInvoices(w.db, invoices)
}

// upsertQuoteTransactionLocked keeps the in-direction history record
// for a quote in step with its invoice. Callers hold w.mu.
func (w *Wallet) upsertQuoteTransactionLocked(invoice storage.Invoice) error {
	transactions, err := storage.GetTransactions(w.db)
	if err != nil {
		return err
	}

	for i := range transactions {
		if transactions[i].QuoteId == invoice.QuoteId {
			transactions[i].State = invoice.State.String()
			return storage.PutTransactions(w.db, transactions)
		}
	}

	transactions = append(transactions, storage.Transaction{
		Direction: storage.In,
		Amount:    invoice.Amount,
		Unit:      invoice.Unit,
		Mint:      invoice.Mint,
		State:     invoice.State.String(),
		Timestamp: time.Now().Unix(),
		QuoteId:   invoice.QuoteId,
	})
	return storage.PutTransactions(w.db, transactions)
}
